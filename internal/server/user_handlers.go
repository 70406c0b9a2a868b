package server

import (
	"errors"

	"riddlery/internal/cache"
	"riddlery/internal/models"
	"riddlery/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetMyProfile handles GET /api/users/me.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	user, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("User", userID))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me. Only the bio and username are
// user-editable.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Username *string `json:"username"`
		Bio      *string `json:"bio"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	if req.Username != nil {
		if err := validation.ValidateUsername(*req.Username); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		user.Username = *req.Username
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}

	if err := s.userRepo.Update(c.UserContext(), user); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	cache.InvalidateUser(c.UserContext(), userID)

	return c.JSON(user)
}

// PromoteToAdmin handles POST /api/admin/users/:id/promote.
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	return s.setAdminFlag(c, true)
}

// DemoteFromAdmin handles POST /api/admin/users/:id/demote. Admins cannot
// demote themselves, so the last admin cannot lock everyone out by accident.
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if targetID == currentUserID(c) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Cannot demote yourself"))
	}
	return s.setAdminFlag(c, false)
}

func (s *Server) setAdminFlag(c *fiber.Ctx, isAdmin bool) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.userRepo.SetAdmin(c.UserContext(), targetID, isAdmin); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("User", targetID))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	cache.InvalidateUser(c.UserContext(), targetID)

	return c.JSON(fiber.Map{
		"user_id":  targetID,
		"is_admin": isAdmin,
	})
}
