package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/goldenreel/goldenreel/internal/auth"
	"github.com/goldenreel/goldenreel/internal/identity"
	"github.com/goldenreel/goldenreel/internal/middleware"
)

// RegisterUserRoutes wires registration, login and the authenticated user surface.
func RegisterUserRoutes(r fiber.Router, h *identity.Handler, repo identity.Repository, tokens *auth.TokenManager, rateLimiter fiber.Handler) {
	r.Post("/users", h.Register)
	r.Post("/users/login", rateLimiter, h.Login)

	jwtmw := middleware.JWTAuth(tokens)
	protected := r.Group("", jwtmw)
	protected.Get("/users", h.List)
	protected.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		user, err := repo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		return c.JSON(fiber.Map{
			"id":          user.ID,
			"username":    user.Username,
			"email":       user.Email,
			"countryCode": user.CountryCode,
			"createdAt":   user.CreatedAt,
		})
	})
}
