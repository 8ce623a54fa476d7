package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/goldenreel/goldenreel/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints. Mutating routes go
// through the idempotency middleware when a cache is configured.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, idem fiber.Handler) {
	r.Get("/wallet/:userId", h.Get)
	r.Get("/wallet/:userId/transactions", h.Transactions)

	if idem != nil {
		r.Post("/wallet/:userId/deposit", idem, h.Deposit)
		r.Post("/wallet/:userId/withdraw", idem, h.Withdraw)
		return
	}
	r.Post("/wallet/:userId/deposit", h.Deposit)
	r.Post("/wallet/:userId/withdraw", h.Withdraw)
}
