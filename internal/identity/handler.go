package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/goldenreel/goldenreel/internal/auth"
)

// Handler exposes registration, login and listing endpoints.
type Handler struct {
	service *Service
	tokens  *auth.TokenManager
}

// NewHandler builds an identity HTTP handler.
func NewHandler(service *Service, tokens *auth.TokenManager) *Handler {
	return &Handler{service: service, tokens: tokens}
}

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CountryCode string `json:"countryCode"`
	Currency    string `json:"currency"`
}

type walletView struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Currency     string    `json:"currency"`
	BalanceCents int64     `json:"balanceCents"`
	Status       string    `json:"status"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type userView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	CountryCode string `json:"countryCode"`
}

// Register creates a user together with their wallet.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Username == "" || req.Email == "" || req.Password == "" || req.CountryCode == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "MISSING_REQUIRED_FIELDS"})
	}

	user, w, err := h.service.Register(c.UserContext(), RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		CountryCode: req.CountryCode,
		Currency:    req.Currency,
	})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "USER_ALREADY_EXISTS"})
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"id":          user.ID,
		"username":    user.Username,
		"email":       user.Email,
		"countryCode": user.CountryCode,
		"wallet": walletView{
			ID:           w.ID,
			UserID:       w.OwnerID,
			Currency:     w.Currency,
			BalanceCents: w.Balance,
			Status:       w.Status,
			UpdatedAt:    w.UpdatedAt,
		},
	})
}

type loginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// Login validates credentials and issues an access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.UsernameOrEmail == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "MISSING_REQUIRED_FIELDS"})
	}

	user, err := h.service.Authenticate(c.UserContext(), Credentials{
		UsernameOrEmail: req.UsernameOrEmail,
		Password:        req.Password,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "INVALID_CREDENTIALS"})
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	token, expiresAt, err := h.tokens.Generate(user.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"id":          user.ID,
		"username":    user.Username,
		"email":       user.Email,
		"accessToken": token,
		"expiresAt":   expiresAt,
	})
}

// List returns all registered users.
func (h *Handler) List(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userView{ID: u.ID, Username: u.Username, Email: u.Email, CountryCode: u.CountryCode})
	}
	return c.JSON(out)
}
