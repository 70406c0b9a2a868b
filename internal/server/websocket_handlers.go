package server

import (
	"riddlery/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ModerationFeedHandler handles GET /api/ws/moderation: a one-way stream of
// moderation events for connected admins. Auth and the admin check run as
// route middleware before the upgrade.
func (s *Server) ModerationFeedHandler() fiber.Handler {
	if s.hub == nil {
		return func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "real-time feed unavailable",
			})
		}
	}

	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			observability.GlobalLogger.Warn("moderation feed register",
				"user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		observability.GlobalLogger.Info("moderation feed connected", "user_id", userID)

		go client.WritePump()
		client.ReadPump()
	})
}
