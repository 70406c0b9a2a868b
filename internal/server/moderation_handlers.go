package server

import (
	"errors"

	"riddlery/internal/cache"
	"riddlery/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetPendingRiddles handles GET /api/admin/riddles/pending.
func (s *Server) GetPendingRiddles(c *fiber.Ctx) error {
	p := parsePagination(c, 50)

	riddles, err := s.riddleRepo.ListByStatus(c.UserContext(), models.RiddleStatusPending, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	dtos := make([]RiddleDTO, 0, len(riddles))
	for _, r := range riddles {
		dtos = append(dtos, toRiddleDTO(r, true))
	}
	return c.JSON(dtos)
}

// ApproveRiddle handles POST /api/admin/riddles/:publicId/approve.
func (s *Server) ApproveRiddle(c *fiber.Ctx) error {
	riddle, err := s.lookupRiddle(c)
	if err != nil {
		return nil
	}

	decided, err := s.engine.Approve(c.UserContext(), riddle.ID, currentUserID(c))
	if err != nil {
		return respondAppError(c, err)
	}

	cache.InvalidateRiddle(c.UserContext(), decided.PublicID)
	cache.InvalidateRiddleLists(c.UserContext())

	return c.JSON(toRiddleDTO(decided, true))
}

// RejectRiddle handles POST /api/admin/riddles/:publicId/reject. A
// non-empty reason is required and stored verbatim.
func (s *Server) RejectRiddle(c *fiber.Ctx) error {
	riddle, err := s.lookupRiddle(c)
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	decided, err := s.engine.Reject(c.UserContext(), riddle.ID, currentUserID(c), req.Reason)
	if err != nil {
		return respondAppError(c, err)
	}

	cache.InvalidateRiddle(c.UserContext(), decided.PublicID)
	cache.InvalidateRiddleLists(c.UserContext())

	return c.JSON(toRiddleDTO(decided, true))
}

// lookupRiddle resolves the :publicId route parameter. On failure the
// response is already written and the caller should return nil.
func (s *Server) lookupRiddle(c *fiber.Ctx) (*models.Riddle, error) {
	publicID := c.Params("publicId")
	riddle, err := s.riddleRepo.GetByPublicID(c.UserContext(), publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Riddle", publicID))
			return nil, errResponseWritten
		}
		_ = models.RespondWithError(c, fiber.StatusInternalServerError, err)
		return nil, errResponseWritten
	}
	return riddle, nil
}
