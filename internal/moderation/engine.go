// Package moderation implements the riddle moderation workflow: submission
// into the pending state and the single, admin-gated transition to a
// terminal approved or rejected state.
package moderation

import (
	"context"
	"errors"
	"strings"
	"time"

	"riddlery/internal/models"
	"riddlery/internal/observability"
	"riddlery/internal/repository"
	"riddlery/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// AdminChecker answers whether a user holds the administrator capability.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

// EventPublisher receives moderation lifecycle events. Implementations must
// be non-blocking or best-effort; a failed publish never fails the
// transition.
type EventPublisher interface {
	PublishRiddleSubmitted(ctx context.Context, riddle *models.Riddle)
	PublishRiddleDecided(ctx context.Context, riddle *models.Riddle)
}

// Engine is the only writer of a riddle's moderation fields. It holds no
// in-process locks: concurrent decisions on the same item are serialized by
// the store's conditional update.
type Engine struct {
	riddles repository.RiddleRepository
	admins  AdminChecker
	events  EventPublisher
	now     func() time.Time
}

// NewEngine returns a moderation engine over the given stores. events may be
// nil.
func NewEngine(riddles repository.RiddleRepository, admins AdminChecker, events EventPublisher) *Engine {
	return &Engine{
		riddles: riddles,
		admins:  admins,
		events:  events,
		now:     time.Now,
	}
}

// Submit creates a new riddle in the pending state. The author must already
// be an authenticated member; no further authorization applies.
func (e *Engine) Submit(ctx context.Context, authorUserID uint, teamID *uint, body, answer string) (*models.Riddle, error) {
	span, ctx := observability.NewSpan(ctx, "moderation.submit")
	defer span.End()

	if err := validation.ValidateRiddleBody(body); err != nil {
		observability.RecordModerationTransition("submit", "invalid")
		return nil, models.NewValidationError(err.Error())
	}

	riddle := &models.Riddle{
		PublicID:     uuid.NewString(),
		Body:         strings.TrimSpace(body),
		Answer:       strings.TrimSpace(answer),
		AuthorUserID: authorUserID,
		TeamID:       teamID,
		Status:       models.RiddleStatusPending,
	}

	if err := e.riddles.Create(ctx, riddle); err != nil {
		span.SetError(err)
		observability.RecordModerationTransition("submit", "store_error")
		return nil, models.NewUpstreamUnavailableError(err)
	}

	span.AddAttributes(attribute.String("riddle.public_id", riddle.PublicID))
	observability.RecordModerationTransition("submit", "success")
	if e.events != nil {
		e.events.PublishRiddleSubmitted(ctx, riddle)
	}
	return riddle, nil
}

// Approve transitions a pending riddle to approved. Calling it on an
// already-decided riddle reports ALREADY_DECIDED rather than silently
// succeeding, so replays never double-count downstream effects.
func (e *Engine) Approve(ctx context.Context, riddleID, actorUserID uint) (*models.Riddle, error) {
	return e.decide(ctx, "approve", riddleID, actorUserID, models.RiddleStatusApproved, "")
}

// Reject transitions a pending riddle to rejected. The reason is required
// and stored verbatim.
func (e *Engine) Reject(ctx context.Context, riddleID, actorUserID uint, reason string) (*models.Riddle, error) {
	if err := validation.ValidateRejectionReason(reason); err != nil {
		observability.RecordModerationTransition("reject", "invalid")
		return nil, models.NewValidationError(err.Error())
	}
	return e.decide(ctx, "reject", riddleID, actorUserID, models.RiddleStatusRejected, reason)
}

func (e *Engine) decide(ctx context.Context, operation string, riddleID, actorUserID uint,
	newStatus models.RiddleStatus, reason string) (*models.Riddle, error) {
	span, ctx := observability.NewSpan(ctx, "moderation."+operation)
	defer span.End()
	span.AddAttributes(
		attribute.Int("riddle.id", int(riddleID)),
		attribute.Int("actor.user_id", int(actorUserID)),
	)

	isAdmin, err := e.admins.IsAdmin(ctx, actorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordModerationTransition(operation, "forbidden")
			return nil, models.NewForbiddenError("Administrator access required")
		}
		span.SetError(err)
		observability.RecordModerationTransition(operation, "store_error")
		return nil, models.NewUpstreamUnavailableError(err)
	}
	if !isAdmin {
		observability.RecordModerationTransition(operation, "forbidden")
		return nil, models.NewForbiddenError("Administrator access required")
	}

	ok, err := e.riddles.DecideStatus(ctx, riddleID, models.RiddleStatusPending, newStatus,
		actorUserID, e.now().UTC(), reason)
	if err != nil {
		span.SetError(err)
		observability.RecordModerationTransition(operation, "store_error")
		return nil, models.NewUpstreamUnavailableError(err)
	}
	if !ok {
		// The conditional write lost: either the riddle does not exist or
		// another decision already landed.
		if _, getErr := e.riddles.GetByID(ctx, riddleID); getErr != nil {
			if errors.Is(getErr, gorm.ErrRecordNotFound) {
				observability.RecordModerationTransition(operation, "not_found")
				return nil, models.NewNotFoundError("Riddle", riddleID)
			}
			span.SetError(getErr)
			observability.RecordModerationTransition(operation, "store_error")
			return nil, models.NewUpstreamUnavailableError(getErr)
		}
		observability.RecordModerationTransition(operation, "already_decided")
		return nil, models.NewAlreadyDecidedError("Riddle", riddleID)
	}

	riddle, err := e.riddles.GetByID(ctx, riddleID)
	if err != nil {
		span.SetError(err)
		observability.RecordModerationTransition(operation, "store_error")
		return nil, models.NewUpstreamUnavailableError(err)
	}

	observability.RecordModerationTransition(operation, "success")
	if e.events != nil {
		e.events.PublishRiddleDecided(ctx, riddle)
	}
	return riddle, nil
}
