package repository

import (
	"context"
	"time"

	"riddlery/internal/models"
	"riddlery/internal/observability"

	"gorm.io/gorm"
)

// RiddleRepository defines the interface for riddle data operations.
type RiddleRepository interface {
	Create(ctx context.Context, riddle *models.Riddle) error
	GetByID(ctx context.Context, id uint) (*models.Riddle, error)
	GetByPublicID(ctx context.Context, publicID string) (*models.Riddle, error)
	ListByStatus(ctx context.Context, status models.RiddleStatus, limit, offset int) ([]*models.Riddle, error)
	ListByAuthor(ctx context.Context, authorUserID uint, limit, offset int) ([]*models.Riddle, error)
	// DecideStatus performs the conditional decision write. The update only
	// applies while the row still holds expectedStatus; a false return means
	// the precondition failed and no rows changed.
	DecideStatus(ctx context.Context, id uint, expectedStatus, newStatus models.RiddleStatus,
		decidedByUserID uint, decidedAt time.Time, rejectionReason string) (bool, error)
}

// riddleRepository implements RiddleRepository
type riddleRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewRiddleRepository creates a new riddle repository
func NewRiddleRepository(db *gorm.DB) RiddleRepository {
	return &riddleRepository{db: db, metrics: observability.NewDatabaseMetrics()}
}

func (r *riddleRepository) Create(ctx context.Context, riddle *models.Riddle) error {
	defer r.metrics.TrackQuery("create", "riddles")()
	return r.db.WithContext(ctx).Create(riddle).Error
}

func (r *riddleRepository) GetByID(ctx context.Context, id uint) (*models.Riddle, error) {
	defer r.metrics.TrackQuery("read", "riddles")()
	var riddle models.Riddle
	if err := r.db.WithContext(ctx).Preload("AuthorUser").Preload("Team").First(&riddle, id).Error; err != nil {
		return nil, err
	}
	return &riddle, nil
}

func (r *riddleRepository) GetByPublicID(ctx context.Context, publicID string) (*models.Riddle, error) {
	defer r.metrics.TrackQuery("read", "riddles")()
	var riddle models.Riddle
	err := r.db.WithContext(ctx).
		Preload("AuthorUser").
		Preload("Team").
		Where("public_id = ?", publicID).
		First(&riddle).Error
	if err != nil {
		return nil, err
	}
	return &riddle, nil
}

func (r *riddleRepository) ListByStatus(ctx context.Context, status models.RiddleStatus, limit, offset int) ([]*models.Riddle, error) {
	defer r.metrics.TrackQuery("list", "riddles")()
	var riddles []*models.Riddle
	err := r.db.WithContext(ctx).
		Preload("AuthorUser").
		Preload("Team").
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&riddles).Error
	return riddles, err
}

func (r *riddleRepository) ListByAuthor(ctx context.Context, authorUserID uint, limit, offset int) ([]*models.Riddle, error) {
	defer r.metrics.TrackQuery("list", "riddles")()
	var riddles []*models.Riddle
	err := r.db.WithContext(ctx).
		Preload("Team").
		Where("author_user_id = ?", authorUserID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&riddles).Error
	return riddles, err
}

func (r *riddleRepository) DecideStatus(ctx context.Context, id uint, expectedStatus, newStatus models.RiddleStatus,
	decidedByUserID uint, decidedAt time.Time, rejectionReason string) (bool, error) {
	defer r.metrics.TrackQuery("update", "riddles")()

	updates := map[string]any{
		"status":             newStatus,
		"decided_at":         decidedAt,
		"decided_by_user_id": decidedByUserID,
	}
	if newStatus == models.RiddleStatusRejected {
		updates["rejection_reason"] = rejectionReason
	}

	// The WHERE clause on the current status is the compare-and-set: two
	// racing decisions resolve with exactly one winner at the store.
	result := r.db.WithContext(ctx).
		Model(&models.Riddle{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
