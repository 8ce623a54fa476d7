package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/goldenreel/goldenreel/internal/metrics"
)

// Service is the sole entry point for changing a wallet's balance. Every
// call runs as one unit of work: the wallet row is locked, the movement is
// validated against the current balance, and the balance update plus its
// ledger entry commit together or not at all. Concurrent calls against the
// same wallet are serialized by the store lock.
type Service struct {
	store Store
}

// NewService builds a ledger service on top of the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ApplyInput captures one requested balance movement.
type ApplyInput struct {
	OwnerID     string
	Amount      int64
	Kind        EntryKind
	Description string
}

// Apply validates and applies a single deposit or withdrawal, returning the
// resulting balance. On any error no balance change and no entry are left
// behind, so callers may retry a failed call without double application.
func (s *Service) Apply(ctx context.Context, input ApplyInput) (int64, error) {
	if input.Amount <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %d", input.Amount)
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return 0, storageFault("begin", err)
	}
	defer uow.Rollback(ctx) // nolint:errcheck

	w, err := uow.LockWallet(ctx, input.OwnerID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			metrics.LedgerRejections.WithLabelValues("wallet_not_found").Inc()
			return 0, err
		}
		return 0, storageFault("lock wallet", err)
	}

	next := w.Balance
	switch input.Kind {
	case EntryDeposit:
		next += input.Amount
	case EntryWithdraw:
		if next < input.Amount {
			metrics.LedgerRejections.WithLabelValues("insufficient_funds").Inc()
			return 0, ErrInsufficientFunds
		}
		next -= input.Amount
	default:
		metrics.LedgerRejections.WithLabelValues("invalid_kind").Inc()
		return 0, fmt.Errorf("%w: %q", ErrInvalidEntryKind, input.Kind)
	}

	if err := uow.SetBalance(ctx, w.ID, next); err != nil {
		return 0, storageFault("set balance", err)
	}
	if _, err := uow.AppendEntry(ctx, Entry{
		WalletID:    w.ID,
		Kind:        input.Kind,
		Amount:      input.Amount,
		Description: input.Description,
	}); err != nil {
		return 0, storageFault("append entry", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return 0, storageFault("commit", err)
	}

	metrics.EntriesCommitted.WithLabelValues(string(input.Kind)).Inc()
	return next, nil
}

// SettlementInput captures both legs of a game round settlement.
type SettlementInput struct {
	OwnerID   string
	Stake     int64
	Payout    int64
	Reference string
}

// SettleRound debits the stake and credits any payout in a single unit of
// work. Settling as two independent Apply calls would leave a window where a
// crash takes the stake without recording the payout; merging both legs
// under one lock closes that window. Overdraft is checked against the stake
// alone. A zero payout (lost round) appends only the withdrawal entry.
func (s *Service) SettleRound(ctx context.Context, input SettlementInput) (int64, error) {
	if input.Stake <= 0 {
		return 0, fmt.Errorf("stake must be positive, got %d", input.Stake)
	}
	if input.Payout < 0 {
		return 0, fmt.Errorf("payout cannot be negative, got %d", input.Payout)
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return 0, storageFault("begin", err)
	}
	defer uow.Rollback(ctx) // nolint:errcheck

	w, err := uow.LockWallet(ctx, input.OwnerID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			metrics.LedgerRejections.WithLabelValues("wallet_not_found").Inc()
			return 0, err
		}
		return 0, storageFault("lock wallet", err)
	}

	if w.Balance < input.Stake {
		metrics.LedgerRejections.WithLabelValues("insufficient_funds").Inc()
		return 0, ErrInsufficientFunds
	}
	next := w.Balance - input.Stake + input.Payout

	if err := uow.SetBalance(ctx, w.ID, next); err != nil {
		return 0, storageFault("set balance", err)
	}
	if _, err := uow.AppendEntry(ctx, Entry{
		WalletID:    w.ID,
		Kind:        EntryWithdraw,
		Amount:      input.Stake,
		Description: fmt.Sprintf("Bet stake (%s)", input.Reference),
	}); err != nil {
		return 0, storageFault("append stake entry", err)
	}
	if input.Payout > 0 {
		if _, err := uow.AppendEntry(ctx, Entry{
			WalletID:    w.ID,
			Kind:        EntryDeposit,
			Amount:      input.Payout,
			Description: fmt.Sprintf("Round payout (%s)", input.Reference),
		}); err != nil {
			return 0, storageFault("append payout entry", err)
		}
	}
	if err := uow.Commit(ctx); err != nil {
		return 0, storageFault("commit", err)
	}

	metrics.EntriesCommitted.WithLabelValues(string(EntryWithdraw)).Inc()
	if input.Payout > 0 {
		metrics.EntriesCommitted.WithLabelValues(string(EntryDeposit)).Inc()
	}
	metrics.RoundsSettled.Inc()
	return next, nil
}

func storageFault(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
