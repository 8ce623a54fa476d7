package games

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/goldenreel/goldenreel/internal/ledger"
)

// Handler exposes the games catalog and round settlement endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a games HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type variantView struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	MinBetCents      int64   `json:"minBetCents"`
	MaxBetCents      int64   `json:"maxBetCents"`
	HouseEdgePercent float64 `json:"houseEdgePercent"`
}

type gameView struct {
	ID       string        `json:"id"`
	Code     string        `json:"code"`
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Status   string        `json:"status"`
	Variants []variantView `json:"variants"`
}

// List returns the active games with their active variants.
func (h *Handler) List(c *fiber.Ctx) error {
	games, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]gameView, 0, len(games))
	for _, g := range games {
		view := gameView{
			ID:       g.ID,
			Code:     g.Code,
			Name:     g.Name,
			Type:     g.Type,
			Status:   g.Status,
			Variants: make([]variantView, 0, len(g.Variants)),
		}
		for _, v := range g.Variants {
			view.Variants = append(view.Variants, variantView{
				ID:               v.ID,
				Name:             v.Name,
				MinBetCents:      v.MinBet,
				MaxBetCents:      v.MaxBet,
				HouseEdgePercent: v.HouseEdgePercent,
			})
		}
		out = append(out, view)
	}
	return c.JSON(out)
}

type settleRequest struct {
	UserID      string `json:"userId"`
	StakeCents  int64  `json:"stakeCents"`
	PayoutCents int64  `json:"payoutCents"`
	RoundID     string `json:"roundId"`
}

// Settle posts a finished round outcome to the player's wallet.
func (h *Handler) Settle(c *fiber.Ctx) error {
	var req settleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.UserID == "" || req.StakeCents <= 0 || req.PayoutCents < 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "INVALID_ROUND"})
	}

	balance, err := h.service.Settle(c.UserContext(), SettleInput{
		UserID:      req.UserID,
		VariantID:   c.Params("variantId"),
		StakeCents:  req.StakeCents,
		PayoutCents: req.PayoutCents,
		RoundID:     req.RoundID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrVariantNotFound):
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "VARIANT_NOT_FOUND"})
		case errors.Is(err, ErrStakeOutOfRange):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "STAKE_OUT_OF_RANGE"})
		case errors.Is(err, ledger.ErrWalletNotFound):
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "WALLET_NOT_FOUND"})
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "INSUFFICIENT_FUNDS"})
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(fiber.Map{"userId": req.UserID, "roundId": req.RoundID, "balanceCents": balance})
}
