package models

import "time"

// RiddleStatus defines lifecycle states for a submitted riddle.
type RiddleStatus string

const (
	// RiddleStatusPending indicates the riddle is awaiting review.
	RiddleStatusPending RiddleStatus = "pending"
	// RiddleStatusApproved indicates the riddle was accepted and is publicly visible.
	RiddleStatusApproved RiddleStatus = "approved"
	// RiddleStatusRejected indicates the riddle was declined.
	RiddleStatusRejected RiddleStatus = "rejected"
)

// Terminal reports whether the status is a final moderation decision.
func (s RiddleStatus) Terminal() bool {
	return s == RiddleStatusApproved || s == RiddleStatusRejected
}

// Riddle is a user-submitted riddle moving through the moderation lifecycle.
//
// Status, RejectionReason, DecidedAt and DecidedByUserID are written only by
// the moderation engine. DecidedAt and DecidedByUserID are set if and only if
// the status is terminal.
type Riddle struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	PublicID        string       `gorm:"size:36;not null;uniqueIndex" json:"public_id"`
	Body            string       `gorm:"type:text;not null" json:"body"`
	Answer          string       `gorm:"type:text" json:"answer,omitempty"`
	AuthorUserID    uint         `gorm:"not null;index" json:"author_user_id"`
	AuthorUser      *User        `gorm:"foreignKey:AuthorUserID" json:"author_user,omitempty"`
	TeamID          *uint        `gorm:"index" json:"team_id"`
	Team            *Team        `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Status          RiddleStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectionReason string       `gorm:"type:text" json:"rejection_reason,omitempty"`
	DecidedAt       *time.Time   `json:"decided_at"`
	DecidedByUserID *uint        `json:"decided_by_user_id"`
	DecidedByUser   *User        `gorm:"foreignKey:DecidedByUserID" json:"decided_by_user,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Riddle) TableName() string {
	return "riddles"
}
