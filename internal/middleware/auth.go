package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dataprep/ingest/internal/auth"
	"github.com/dataprep/ingest/pkg/response"
)

type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret}
}

// Authenticate validates JWT token from Authorization header
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return response.Unauthorized(c, "Invalid authorization header format")
		}

		return m.authorize(c, strings.TrimSpace(parts[1]))
	}
}

// AuthenticateQuery reads the token from the "token" query parameter.
// Browsers cannot set headers on a WebSocket handshake.
func (m *AuthMiddleware) AuthenticateQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			return response.Unauthorized(c, "Missing token")
		}
		return m.authorize(c, token)
	}
}

func (m *AuthMiddleware) authorize(c *fiber.Ctx, token string) error {
	claims, err := auth.ValidateToken(token, m.jwtSecret)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired token")
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return response.Unauthorized(c, "Invalid token claims")
	}

	c.Locals("userId", userID)
	c.Locals("email", claims.Email)
	c.Locals("claims", claims)

	return c.Next()
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("userId").(string); ok {
		return userID
	}
	return ""
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *fiber.Ctx) string {
	if email, ok := c.Locals("email").(string); ok {
		return email
	}
	return ""
}
