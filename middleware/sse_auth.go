// middleware/sse_auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"leaderboard-service/services"
)

// SSEAuthMiddleware validates the `token` query parameter through the
// identity provider. EventSource clients cannot set headers, so the stream
// endpoint authenticates from the query string.
//
// Usage:
//
//	app.Get("/scores/stream", middleware.SSEAuthMiddleware(authClient), streamService.StreamScores)
func SSEAuthMiddleware(identity services.IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := strings.TrimSpace(c.Query("token"))
		if accessToken == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing token in query",
			})
		}

		resolved, err := identity.Validate(c.Context(), accessToken)
		if err != nil {
			if authErr, ok := services.IsAuthError(err); ok {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Unauthorized",
					"hint":  string(authErr.Kind),
				})
			}
			log.Printf("❌ [SSE_AUTH] identity provider error on %s: %v", c.Path(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "authentication unavailable",
			})
		}

		c.Locals("user_id", resolved.UserID)
		c.Locals("user_name", resolved.DisplayName)

		return c.Next()
	}
}
