package server

import (
	"errors"
	"strings"
	"time"

	"riddlery/internal/cache"
	"riddlery/internal/models"
	"riddlery/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const teamTTL = 5 * time.Minute

// CreateTeam handles POST /api/teams. The creator becomes the team captain.
func (s *Server) CreateTeam(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Name        string `json:"name"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Team name is required"))
	}
	if err := validation.ValidateTeamSlug(req.Slug); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	if _, err := s.teamRepo.GetBySlug(c.UserContext(), req.Slug); err == nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("Team slug already taken"))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	team := &models.Team{
		Name:            req.Name,
		Slug:            req.Slug,
		Description:     req.Description,
		CreatedByUserID: &userID,
	}
	if err := s.teamRepo.Create(c.UserContext(), team); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	membership := &models.TeamMembership{
		TeamID: team.ID,
		UserID: userID,
		Role:   models.TeamMembershipRoleCaptain,
	}
	if err := s.teamRepo.AddMember(c.UserContext(), membership); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(team)
}

// GetTeams handles GET /api/teams.
func (s *Server) GetTeams(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	teams, err := s.teamRepo.List(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(teams)
}

// GetTeam handles GET /api/teams/:slug.
func (s *Server) GetTeam(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var team models.Team
	err := cache.CacheAside(c.UserContext(), cache.TeamKey(slug), &team, teamTTL, func() error {
		found, err := s.teamRepo.GetBySlug(c.UserContext(), slug)
		if err != nil {
			return err
		}
		team = *found
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Team", slug))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(team)
}

// JoinTeam handles POST /api/teams/:slug/join.
func (s *Server) JoinTeam(c *fiber.Ctx) error {
	userID := currentUserID(c)
	slug := c.Params("slug")

	team, err := s.teamRepo.GetBySlug(c.UserContext(), slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Team", slug))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	if _, err := s.teamRepo.GetMembership(c.UserContext(), team.ID, userID); err == nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("Already a member of this team"))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	membership := &models.TeamMembership{
		TeamID: team.ID,
		UserID: userID,
		Role:   models.TeamMembershipRoleMember,
	}
	if err := s.teamRepo.AddMember(c.UserContext(), membership); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	cache.InvalidateTeam(c.UserContext(), slug)

	return c.Status(fiber.StatusCreated).JSON(membership)
}
