package wallet

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/goldenreel/goldenreel/internal/ledger"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type amountRequest struct {
	AmountCents int64 `json:"amountCents"`
}

type walletResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Currency     string    `json:"currency"`
	BalanceCents int64     `json:"balanceCents"`
	Status       string    `json:"status"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type entryResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amountCents"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Get returns the wallet for the user in the path.
func (h *Handler) Get(c *fiber.Ctx) error {
	w, err := h.service.Get(c.UserContext(), c.Params("userId"))
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "WALLET_NOT_FOUND"})
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(walletResponse{
		ID:           w.ID,
		UserID:       w.OwnerID,
		Currency:     w.Currency,
		BalanceCents: w.Balance,
		Status:       w.Status,
		UpdatedAt:    w.UpdatedAt,
	})
}

// Deposit credits the wallet with the posted amount.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	userID := c.Params("userId")
	amount, ok := parseAmount(c)
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "INVALID_AMOUNT"})
	}

	balance, err := h.service.Deposit(c.UserContext(), userID, amount)
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "WALLET_NOT_FOUND"})
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"userId": userID, "balanceCents": balance})
}

// Withdraw debits the wallet with the posted amount.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	userID := c.Params("userId")
	amount, ok := parseAmount(c)
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "INVALID_AMOUNT"})
	}

	balance, err := h.service.Withdraw(c.UserContext(), userID, amount)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrWalletNotFound):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "WALLET_NOT_FOUND"})
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "INSUFFICIENT_FUNDS"})
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(fiber.Map{"userId": userID, "balanceCents": balance})
}

// Transactions lists the wallet's most recent ledger entries.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	entries, err := h.service.Transactions(c.UserContext(), c.Params("userId"), limit)
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "WALLET_NOT_FOUND"})
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:          e.ID,
			Kind:        string(e.Kind),
			AmountCents: e.Amount,
			Status:      e.Status,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"userId": c.Params("userId"), "entries": out})
}

func parseAmount(c *fiber.Ctx) (int64, bool) {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return 0, false
	}
	if req.AmountCents <= 0 {
		return 0, false
	}
	return req.AmountCents, true
}
