// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"riddlery/internal/config"
	"riddlery/internal/gate"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// SessionCookieName is the cookie checked for a token when no Authorization
// header is present. Browser navigation does not carry Bearer headers.
const SessionCookieName = "riddlery_session"

// userIDFromToken verifies the token signature and claims and returns the
// user ID carried in the "sub" claim.
func userIDFromToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	},
		jwt.WithIssuer("riddlery-api"),
		jwt.WithAudience("riddlery-client"),
	)
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}

	// Extract user ID from "sub" claim (subject claim per RFC 7519)
	subClaim, ok := claims["sub"]
	if !ok {
		return 0, fmt.Errorf("missing subject claim")
	}

	subStr, ok := subClaim.(string)
	if !ok {
		return 0, fmt.Errorf("invalid token subject type")
	}

	userIDVal, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID in token")
	}

	return uint(userIDVal), nil
}

// tokenFromRequest extracts a session token from the Authorization header or
// the session cookie. Returns "" when the request is anonymous.
func tokenFromRequest(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", fmt.Errorf("invalid authorization header format")
		}
		return parts[1], nil
	}
	if cookie := c.Cookies(SessionCookieName); cookie != "" {
		return cookie, nil
	}
	return "", nil
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	tokenString, err := tokenFromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid authorization header format",
		})
	}
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authorization required",
		})
	}

	userID, err := userIDFromToken(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	// Store user ID in context
	c.Locals("userID", userID)

	return c.Next()
}

// WebSocketAuthRequired validates tokens from query parameters for WebSocket
// connections, falling back to the Authorization header for regular HTTP.
func WebSocketAuthRequired(c *fiber.Ctx) error {
	tokenString := c.Query("token")
	if tokenString == "" {
		var err error
		tokenString, err = tokenFromRequest(c)
		if err != nil || tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token required",
			})
		}
	}

	userID, err := userIDFromToken(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	c.Locals("userID", userID)

	return c.Next()
}

// ResolveSession is the gate's view of the current session. A missing or
// unverifiable token resolves to an anonymous state rather than an error;
// errors are reserved for identity infrastructure failures. The query token
// fallback covers websocket upgrades, which cannot set headers.
func ResolveSession(c *fiber.Ctx) (gate.AuthState, error) {
	tokenString, err := tokenFromRequest(c)
	if err != nil {
		return gate.AuthState{}, nil
	}
	if tokenString == "" {
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		return gate.AuthState{}, nil
	}
	userID, err := userIDFromToken(tokenString)
	if err != nil {
		return gate.AuthState{}, nil
	}
	return gate.AuthState{UserID: userID, Authenticated: true}, nil
}
