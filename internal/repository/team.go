package repository

import (
	"context"

	"riddlery/internal/models"

	"gorm.io/gorm"
)

// TeamRepository defines the interface for team data operations.
type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id uint) (*models.Team, error)
	GetBySlug(ctx context.Context, slug string) (*models.Team, error)
	List(ctx context.Context, limit, offset int) ([]*models.Team, error)
	AddMember(ctx context.Context, membership *models.TeamMembership) error
	GetMembership(ctx context.Context, teamID, userID uint) (*models.TeamMembership, error)
	ListMembers(ctx context.Context, teamID uint) ([]*models.TeamMembership, error)
}

// teamRepository implements TeamRepository
type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) Create(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *teamRepository) GetByID(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) GetBySlug(ctx context.Context, slug string) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) List(ctx context.Context, limit, offset int) ([]*models.Team, error) {
	var teams []*models.Team
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&teams).Error
	return teams, err
}

func (r *teamRepository) AddMember(ctx context.Context, membership *models.TeamMembership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *teamRepository) GetMembership(ctx context.Context, teamID, userID uint) (*models.TeamMembership, error) {
	var membership models.TeamMembership
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *teamRepository) ListMembers(ctx context.Context, teamID uint) ([]*models.TeamMembership, error) {
	var memberships []*models.TeamMembership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&memberships).Error
	return memberships, err
}
