package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memWallet struct {
	// row serializes units of work on this wallet, mirroring the row lock
	// the Postgres store takes with SELECT ... FOR UPDATE.
	row     sync.Mutex
	wallet  Wallet
	entries []Entry
}

// MemoryStore keeps wallets in process memory. Plain reads go through the
// store-level mutex and never wait on an in-flight unit of work. Useful for
// unit tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byOwner map[string]*memWallet
	byID    map[string]*memWallet
}

// NewMemoryStore constructs an empty in-memory wallet store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byOwner: make(map[string]*memWallet),
		byID:    make(map[string]*memWallet),
	}
}

func (s *MemoryStore) CreateWallet(_ context.Context, ownerID, currency string) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byOwner[ownerID]; exists {
		return Wallet{}, errors.New("wallet already exists for owner")
	}
	w := Wallet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Currency:  currency,
		Status:    WalletStatusActive,
		UpdatedAt: time.Now().UTC(),
	}
	mw := &memWallet{wallet: w}
	s.byOwner[ownerID] = mw
	s.byID[w.ID] = mw
	return w, nil
}

func (s *MemoryStore) GetWallet(_ context.Context, ownerID string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mw, ok := s.byOwner[ownerID]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return mw.wallet, nil
}

func (s *MemoryStore) Entries(_ context.Context, walletID string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mw, ok := s.byID[walletID]
	if !ok {
		return nil, ErrWalletNotFound
	}
	if limit <= 0 {
		limit = DefaultEntryLimit
	}
	// newest first
	out := make([]Entry, 0, len(mw.entries))
	for i := len(mw.entries) - 1; i >= 0; i-- {
		out = append(out, mw.entries[i])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Begin(_ context.Context) (UnitOfWork, error) {
	return &memoryUnitOfWork{store: s}, nil
}

type memoryUnitOfWork struct {
	store    *MemoryStore
	locked   *memWallet
	balance  *int64
	pending  []Entry
	finished bool
}

func (u *memoryUnitOfWork) LockWallet(_ context.Context, ownerID string) (Wallet, error) {
	u.store.mu.RLock()
	mw, ok := u.store.byOwner[ownerID]
	u.store.mu.RUnlock()
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}

	mw.row.Lock()
	u.locked = mw

	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	return mw.wallet, nil
}

func (u *memoryUnitOfWork) SetBalance(_ context.Context, walletID string, balance int64) error {
	if u.locked == nil || u.locked.wallet.ID != walletID {
		return errors.New("wallet not locked by this unit of work")
	}
	u.balance = &balance
	return nil
}

func (u *memoryUnitOfWork) AppendEntry(_ context.Context, entry Entry) (Entry, error) {
	if u.locked == nil || u.locked.wallet.ID != entry.WalletID {
		return Entry{}, errors.New("wallet not locked by this unit of work")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = EntryStatusCompleted
	}
	entry.CreatedAt = time.Now().UTC()
	u.pending = append(u.pending, entry)
	return entry, nil
}

func (u *memoryUnitOfWork) Commit(_ context.Context) error {
	if u.finished {
		return errors.New("unit of work already finished")
	}
	u.finished = true
	if u.locked == nil {
		return nil
	}

	u.store.mu.Lock()
	if u.balance != nil {
		u.locked.wallet.Balance = *u.balance
		u.locked.wallet.UpdatedAt = time.Now().UTC()
	}
	u.locked.entries = append(u.locked.entries, u.pending...)
	u.store.mu.Unlock()

	u.locked.row.Unlock()
	return nil
}

func (u *memoryUnitOfWork) Rollback(_ context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	u.balance = nil
	u.pending = nil
	if u.locked != nil {
		u.locked.row.Unlock()
	}
	return nil
}
