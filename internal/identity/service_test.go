package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goldenreel/goldenreel/internal/ledger"
)

func newTestService() *Service {
	return NewService(NewMemoryRepository(), ledger.NewMemoryStore())
}

func TestRegisterProvisionsWallet(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	user, w, err := svc.Register(ctx, RegisterInput{
		Username:    "alice",
		Email:       "alice@example.com",
		Password:    "s3cret-pass",
		CountryCode: "de",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "DE", user.CountryCode)
	require.NotEqual(t, "s3cret-pass", string(user.PasswordHash))

	require.Equal(t, user.ID, w.OwnerID)
	require.Equal(t, "EUR", w.Currency)
	require.Zero(t, w.Balance)
	require.Equal(t, ledger.WalletStatusActive, w.Status)
}

func TestRegisterCustomCurrency(t *testing.T) {
	svc := newTestService()

	_, w, err := svc.Register(context.Background(), RegisterInput{
		Username:    "bob",
		Email:       "bob@example.com",
		Password:    "hunter22",
		CountryCode: "GB",
		Currency:    "gbp",
	})
	require.NoError(t, err)
	require.Equal(t, "GBP", w.Currency)
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, _, err := svc.Register(ctx, RegisterInput{
		Username:    "carol",
		Email:       "carol@example.com",
		Password:    "pw123456",
		CountryCode: "FR",
	})
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, RegisterInput{
		Username:    "carol",
		Email:       "other@example.com",
		Password:    "pw123456",
		CountryCode: "FR",
	})
	require.ErrorIs(t, err, ErrUserExists)

	_, _, err = svc.Register(ctx, RegisterInput{
		Username:    "carol2",
		Email:       "carol@example.com",
		Password:    "pw123456",
		CountryCode: "FR",
	})
	require.ErrorIs(t, err, ErrUserExists)
}

// walletFaultStore fails wallet creation on demand so the half-finished
// registration path can be exercised.
type walletFaultStore struct {
	ledger.Store
	fail bool
}

func (s *walletFaultStore) CreateWallet(ctx context.Context, ownerID, currency string) (ledger.Wallet, error) {
	if s.fail {
		return ledger.Wallet{}, errors.New("connection reset")
	}
	return s.Store.CreateWallet(ctx, ownerID, currency)
}

func TestRegisterRetryHealsMissingWallet(t *testing.T) {
	ctx := context.Background()
	store := &walletFaultStore{Store: ledger.NewMemoryStore(), fail: true}
	svc := NewService(NewMemoryRepository(), store)

	input := RegisterInput{
		Username:    "frank",
		Email:       "frank@example.com",
		Password:    "pw123456",
		CountryCode: "IT",
	}
	_, _, err := svc.Register(ctx, input)
	require.Error(t, err)

	// The user row survived the wallet fault; the retry must finish the
	// registration rather than reject it as a duplicate.
	store.fail = false
	user, w, err := svc.Register(ctx, input)
	require.NoError(t, err)
	require.Equal(t, "frank", user.Username)
	require.Equal(t, user.ID, w.OwnerID)

	got, err := store.GetWallet(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, got.Balance)

	_, _, err = svc.Register(ctx, input)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterRetryRejectsWrongCredentials(t *testing.T) {
	ctx := context.Background()
	store := &walletFaultStore{Store: ledger.NewMemoryStore(), fail: true}
	svc := NewService(NewMemoryRepository(), store)

	input := RegisterInput{
		Username:    "grace",
		Email:       "grace@example.com",
		Password:    "pw123456",
		CountryCode: "ES",
	}
	_, _, err := svc.Register(ctx, input)
	require.Error(t, err)
	store.fail = false

	wrongPassword := input
	wrongPassword.Password = "different"
	_, _, err = svc.Register(ctx, wrongPassword)
	require.ErrorIs(t, err, ErrUserExists)

	wrongEmail := input
	wrongEmail.Email = "other@example.com"
	_, _, err = svc.Register(ctx, wrongEmail)
	require.ErrorIs(t, err, ErrUserExists)
}

// racingRepository simulates a duplicate committed between the pre-check and
// the insert: lookups see nothing, the insert hits the unique constraint.
type racingRepository struct {
	Repository
}

func (r racingRepository) FindByLogin(context.Context, string) (User, error) {
	return User{}, ErrUserNotFound
}

func (r racingRepository) Create(context.Context, User) error {
	return ErrUserExists
}

func TestRegisterConcurrentDuplicate(t *testing.T) {
	svc := NewService(racingRepository{}, ledger.NewMemoryStore())

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Username:    "heidi",
		Email:       "heidi@example.com",
		Password:    "pw123456",
		CountryCode: "AT",
	})
	require.ErrorIs(t, err, ErrUserExists)
}

func TestMemoryRepositoryCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.Create(ctx, User{ID: "u1", Username: "ivan", Email: "ivan@example.com"}))
	err := repo.Create(ctx, User{ID: "u2", Username: "ivan", Email: "other@example.com"})
	require.ErrorIs(t, err, ErrUserExists)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	registered, _, err := svc.Register(ctx, RegisterInput{
		Username:    "dave",
		Email:       "dave@example.com",
		Password:    "correct horse",
		CountryCode: "NL",
	})
	require.NoError(t, err)

	byUsername, err := svc.Authenticate(ctx, Credentials{UsernameOrEmail: "dave", Password: "correct horse"})
	require.NoError(t, err)
	require.Equal(t, registered.ID, byUsername.ID)

	byEmail, err := svc.Authenticate(ctx, Credentials{UsernameOrEmail: "dave@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.Equal(t, registered.ID, byEmail.ID)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, _, err := svc.Register(ctx, RegisterInput{
		Username:    "erin",
		Email:       "erin@example.com",
		Password:    "top secret",
		CountryCode: "SE",
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, Credentials{UsernameOrEmail: "erin", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown login maps to the same error as a wrong password.
	_, err = svc.Authenticate(ctx, Credentials{UsernameOrEmail: "nobody", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
