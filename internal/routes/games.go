package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/goldenreel/goldenreel/internal/games"
)

// RegisterGameRoutes wires the catalog and round settlement endpoints.
func RegisterGameRoutes(r fiber.Router, h *games.Handler, idem fiber.Handler) {
	r.Get("/games", h.List)

	if idem != nil {
		r.Post("/games/:variantId/settle", idem, h.Settle)
		return
	}
	r.Post("/games/:variantId/settle", h.Settle)
}
