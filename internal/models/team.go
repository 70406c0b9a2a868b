package models

import "time"

// TeamMembershipRole defines a member's role within a team.
type TeamMembershipRole string

const (
	// TeamMembershipRoleCaptain is the team captain role.
	TeamMembershipRoleCaptain TeamMembershipRole = "captain"
	// TeamMembershipRoleMember is the default member role.
	TeamMembershipRoleMember TeamMembershipRole = "member"
)

// Team is a named group of users that riddles can be scoped to.
type Team struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:120;not null" json:"name"`
	Slug            string    `gorm:"size:24;not null;uniqueIndex" json:"slug"`
	Description     string    `gorm:"type:text" json:"description"`
	CreatedByUserID *uint     `json:"created_by_user_id"`
	CreatedByUser   *User     `gorm:"foreignKey:CreatedByUserID" json:"created_by_user,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Team) TableName() string {
	return "teams"
}

// TeamMembership maps users to teams and tracks role.
type TeamMembership struct {
	TeamID    uint               `gorm:"primaryKey;autoIncrement:false" json:"team_id"`
	Team      *Team              `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	UserID    uint               `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User      *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      TeamMembershipRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
