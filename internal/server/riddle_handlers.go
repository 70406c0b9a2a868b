package server

import (
	"errors"
	"strings"
	"time"

	"riddlery/internal/cache"
	"riddlery/internal/middleware"
	"riddlery/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const riddleListTTL = 2 * time.Minute

// RiddleDTO is the public view of a riddle. The answer is only included for
// the author and for admins.
type RiddleDTO struct {
	PublicID        string     `json:"public_id"`
	Body            string     `json:"body"`
	Answer          string     `json:"answer,omitempty"`
	AuthorUsername  string     `json:"author_username,omitempty"`
	TeamSlug        string     `json:"team_slug,omitempty"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toRiddleDTO(r *models.Riddle, includeAnswer bool) RiddleDTO {
	dto := RiddleDTO{
		PublicID:        r.PublicID,
		Body:            r.Body,
		Status:          string(r.Status),
		RejectionReason: r.RejectionReason,
		DecidedAt:       r.DecidedAt,
		CreatedAt:       r.CreatedAt,
	}
	if includeAnswer {
		dto.Answer = r.Answer
	}
	if r.AuthorUser != nil {
		dto.AuthorUsername = r.AuthorUser.Username
	}
	if r.Team != nil {
		dto.TeamSlug = r.Team.Slug
	}
	return dto
}

// SubmitRiddle handles POST /api/riddles. The riddle enters the moderation
// queue in the pending state.
func (s *Server) SubmitRiddle(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Body     string `json:"body"`
		Answer   string `json:"answer"`
		TeamSlug string `json:"team_slug"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	var teamID *uint
	if slug := strings.TrimSpace(req.TeamSlug); slug != "" {
		team, err := s.teamRepo.GetBySlug(c.UserContext(), slug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.RespondWithError(c, fiber.StatusNotFound,
					models.NewNotFoundError("Team", slug))
			}
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if _, err := s.teamRepo.GetMembership(c.UserContext(), team.ID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.RespondWithError(c, fiber.StatusForbidden,
					models.NewForbiddenError("Team membership required"))
			}
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		teamID = &team.ID
	}

	riddle, err := s.engine.Submit(c.UserContext(), userID, teamID, req.Body, req.Answer)
	if err != nil {
		return respondAppError(c, err)
	}

	cache.InvalidateRiddleLists(c.UserContext())

	return c.Status(fiber.StatusCreated).JSON(toRiddleDTO(riddle, true))
}

// GetRiddles handles GET /api/riddles. Only approved riddles are listed;
// answers are never included.
func (s *Server) GetRiddles(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	var dtos []RiddleDTO
	key := cache.RiddleListKey(p.Limit, p.Offset)
	err := cache.CacheAside(c.UserContext(), key, &dtos, riddleListTTL, func() error {
		riddles, err := s.riddleRepo.ListByStatus(c.UserContext(), models.RiddleStatusApproved, p.Limit, p.Offset)
		if err != nil {
			return err
		}
		dtos = make([]RiddleDTO, 0, len(riddles))
		for _, r := range riddles {
			dtos = append(dtos, toRiddleDTO(r, false))
		}
		return nil
	})
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(dtos)
}

// GetRiddle handles GET /api/riddles/:publicId. Pending and rejected riddles
// are only visible to their author and to admins.
func (s *Server) GetRiddle(c *fiber.Ctx) error {
	publicID := c.Params("publicId")

	riddle, err := s.riddleRepo.GetByPublicID(c.UserContext(), publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Riddle", publicID))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	viewer, _ := middleware.ResolveSession(c)
	privileged := false
	if viewer.Authenticated {
		if viewer.UserID == riddle.AuthorUserID {
			privileged = true
		} else if admin, err := s.userRepo.IsAdmin(c.UserContext(), viewer.UserID); err == nil && admin {
			privileged = true
		}
	}

	if riddle.Status != models.RiddleStatusApproved && !privileged {
		// Hidden rather than forbidden: don't leak queue contents.
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Riddle", publicID))
	}

	return c.JSON(toRiddleDTO(riddle, privileged))
}

// GetMyRiddles handles GET /api/riddles/mine for the authenticated author,
// including pending and rejected submissions.
func (s *Server) GetMyRiddles(c *fiber.Ctx) error {
	userID := currentUserID(c)
	p := parsePagination(c, 20)

	riddles, err := s.riddleRepo.ListByAuthor(c.UserContext(), userID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	dtos := make([]RiddleDTO, 0, len(riddles))
	for _, r := range riddles {
		dtos = append(dtos, toRiddleDTO(r, true))
	}
	return c.JSON(dtos)
}
