package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/goldenreel/goldenreel/internal/ledger"
)

const defaultCurrency = "EUR"

var (
	// ErrUserExists indicates the username or email is already taken.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials covers both unknown logins and wrong passwords,
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service manages the player lifecycle. Registration provisions the user's
// wallet so every authenticated player can bet immediately.
type Service struct {
	repo    Repository
	wallets ledger.Store
}

// NewService creates an identity service.
func NewService(repo Repository, wallets ledger.Store) *Service {
	return &Service{repo: repo, wallets: wallets}
}

// RegisterInput captures a registration request.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	CountryCode string
	Currency    string
}

// Register creates a user and a zero-balance wallet for them. The two
// inserts land in different stores, so a fault between them can leave a user
// row without a wallet; retrying with the same credentials resumes that
// half-finished registration by creating the missing wallet instead of
// failing with ErrUserExists.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, ledger.Wallet, error) {
	for _, login := range []string{input.Username, input.Email} {
		existing, err := s.repo.FindByLogin(ctx, login)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				continue
			}
			return User{}, ledger.Wallet{}, err
		}
		return s.resumeRegistration(ctx, existing, input)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, ledger.Wallet{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		CountryCode:  strings.ToUpper(input.CountryCode),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, ledger.Wallet{}, err
	}

	w, err := s.wallets.CreateWallet(ctx, user.ID, walletCurrency(input.Currency))
	if err != nil {
		return User{}, ledger.Wallet{}, err
	}

	return user, w, nil
}

// resumeRegistration finishes a registration whose wallet insert previously
// failed. Only the original registrant may resume: the request must carry the
// exact username/email pair and the matching password. Anything else is a
// plain duplicate.
func (s *Service) resumeRegistration(ctx context.Context, existing User, input RegisterInput) (User, ledger.Wallet, error) {
	if _, err := s.wallets.GetWallet(ctx, existing.ID); err == nil {
		return User{}, ledger.Wallet{}, ErrUserExists
	} else if !errors.Is(err, ledger.ErrWalletNotFound) {
		return User{}, ledger.Wallet{}, err
	}

	if existing.Username != input.Username || existing.Email != input.Email {
		return User{}, ledger.Wallet{}, ErrUserExists
	}
	if bcrypt.CompareHashAndPassword(existing.PasswordHash, []byte(input.Password)) != nil {
		return User{}, ledger.Wallet{}, ErrUserExists
	}

	w, err := s.wallets.CreateWallet(ctx, existing.ID, walletCurrency(input.Currency))
	if err != nil {
		return User{}, ledger.Wallet{}, err
	}
	return existing, w, nil
}

func walletCurrency(currency string) string {
	currency = strings.ToUpper(currency)
	if currency == "" {
		currency = defaultCurrency
	}
	return currency
}

// Authenticate verifies a login attempt.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByLogin(ctx, creds.UsernameOrEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// List returns all registered users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}
