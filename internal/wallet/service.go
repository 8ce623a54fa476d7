package wallet

import (
	"context"

	"github.com/goldenreel/goldenreel/internal/ledger"
)

const (
	depositDescription  = "Manual deposit"
	withdrawDescription = "Manual withdraw"
)

// Service exposes wallet reads and the manual deposit/withdraw flows. All
// balance mutation is delegated to the ledger service.
type Service struct {
	store  ledger.Store
	ledger *ledger.Service
}

// NewService builds a wallet service.
func NewService(store ledger.Store, ledgerSvc *ledger.Service) *Service {
	return &Service{store: store, ledger: ledgerSvc}
}

// Get returns the wallet for an owner without locking it.
func (s *Service) Get(ctx context.Context, ownerID string) (ledger.Wallet, error) {
	return s.store.GetWallet(ctx, ownerID)
}

// Deposit credits the owner's wallet and returns the resulting balance.
func (s *Service) Deposit(ctx context.Context, ownerID string, amount int64) (int64, error) {
	return s.ledger.Apply(ctx, ledger.ApplyInput{
		OwnerID:     ownerID,
		Amount:      amount,
		Kind:        ledger.EntryDeposit,
		Description: depositDescription,
	})
}

// Withdraw debits the owner's wallet and returns the resulting balance.
func (s *Service) Withdraw(ctx context.Context, ownerID string, amount int64) (int64, error) {
	return s.ledger.Apply(ctx, ledger.ApplyInput{
		OwnerID:     ownerID,
		Amount:      amount,
		Kind:        ledger.EntryWithdraw,
		Description: withdrawDescription,
	})
}

// Transactions lists the owner's most recent ledger entries.
func (s *Service) Transactions(ctx context.Context, ownerID string, limit int) ([]ledger.Entry, error) {
	w, err := s.store.GetWallet(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.store.Entries(ctx, w.ID, limit)
}
