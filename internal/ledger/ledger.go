package ledger

import (
	"context"
	"errors"
	"time"
)

// EntryKind is the direction of a balance movement. Amounts are always
// positive; the kind determines whether they are added or removed.
type EntryKind string

const (
	EntryDeposit  EntryKind = "DEPOSIT"
	EntryWithdraw EntryKind = "WITHDRAW"

	// EntryStatusCompleted is the only entry status. Partial states are not
	// modeled; an entry exists only once its unit of work has committed.
	EntryStatusCompleted = "COMPLETED"

	WalletStatusActive = "ACTIVE"
	WalletStatusFrozen = "FROZEN"
)

var (
	// ErrWalletNotFound indicates no wallet exists for the given owner.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInsufficientFunds indicates a withdrawal would drive the balance
	// negative. Expected and user-facing, not a fault.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidEntryKind indicates a caller passed a kind outside the
	// DEPOSIT/WITHDRAW set. A contract bug on the caller's side.
	ErrInvalidEntryKind = errors.New("invalid entry kind")

	// ErrStorage wraps faults from the backing store. The unit of work is
	// rolled back as a whole, so the failed call is safe to retry.
	ErrStorage = errors.New("ledger storage fault")
)

// Wallet holds one user's balance in minor currency units (cents). The
// balance is mutated only through Service; readers get the most recently
// committed value with no freshness guarantee beyond that.
type Wallet struct {
	ID        string
	OwnerID   string
	Currency  string
	Balance   int64
	Status    string
	UpdatedAt time.Time
}

// Entry is an immutable record of one balance movement. Entries are never
// updated or deleted; the sum of deposits minus withdrawals for a wallet
// always equals its current balance.
type Entry struct {
	ID          string
	WalletID    string
	Kind        EntryKind
	Amount      int64
	Status      string
	Description string
	CreatedAt   time.Time
}

// DefaultEntryLimit caps Entries when the caller passes no positive limit.
const DefaultEntryLimit = 50

// Store provides durable wallet state. All mutation happens inside a
// UnitOfWork; the direct reads never coordinate with in-flight writers.
type Store interface {
	CreateWallet(ctx context.Context, ownerID, currency string) (Wallet, error)
	GetWallet(ctx context.Context, ownerID string) (Wallet, error)
	// Entries returns the wallet's most recent entries, newest first. A
	// limit <= 0 means DefaultEntryLimit; history is never unbounded.
	Entries(ctx context.Context, walletID string, limit int) ([]Entry, error)
	Begin(ctx context.Context) (UnitOfWork, error)
}

// UnitOfWork is an atomic group of wallet reads and writes. Mutations become
// durable only on Commit; Rollback leaves the store exactly as it was.
// Rollback after Commit is a no-op, so callers can defer it unconditionally.
type UnitOfWork interface {
	// LockWallet is the sole admission point for mutation. It blocks any
	// concurrent LockWallet on the same wallet until this unit of work ends.
	LockWallet(ctx context.Context, ownerID string) (Wallet, error)
	SetBalance(ctx context.Context, walletID string, balance int64) error
	AppendEntry(ctx context.Context, entry Entry) (Entry, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
