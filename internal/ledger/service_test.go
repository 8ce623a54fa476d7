package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func newTestWallet(t *testing.T, store *MemoryStore) Wallet {
	t.Helper()
	w, err := store.CreateWallet(context.Background(), uuid.NewString(), "EUR")
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	return w
}

func TestApplyRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	w := newTestWallet(t, store)

	balance, err := svc.Apply(ctx, ApplyInput{OwnerID: w.OwnerID, Amount: 2_500, Kind: EntryDeposit, Description: "Manual deposit"})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if balance != 2_500 {
		t.Fatalf("expected balance 2500 after deposit, got %d", balance)
	}

	balance, err = svc.Apply(ctx, ApplyInput{OwnerID: w.OwnerID, Amount: 2_500, Kind: EntryWithdraw, Description: "Manual withdraw"})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected balance 0 after round trip, got %d", balance)
	}

	entries, err := store.Entries(ctx, w.ID, 0)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected exactly 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Status != EntryStatusCompleted {
			t.Fatalf("entry %s has status %q", e.ID, e.Status)
		}
	}
}

func TestApplyWithdrawExactBalance(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	w := newTestWallet(t, store)
	SeedBalance(store, w.OwnerID, 500)

	balance, err := svc.Apply(ctx, ApplyInput{OwnerID: w.OwnerID, Amount: 500, Kind: EntryWithdraw})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected balance 0, got %d", balance)
	}

	entries, _ := store.Entries(ctx, w.ID, 0)
	if len(entries) != 1 || entries[0].Kind != EntryWithdraw || entries[0].Amount != 500 {
		t.Fatalf("expected one WITHDRAW entry of 500, got %+v", entries)
	}
}

func TestApplyOverdraftRejected(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	w := newTestWallet(t, store)

	if _, err := svc.Apply(ctx, ApplyInput{OwnerID: w.OwnerID, Amount: 1, Kind: EntryWithdraw}); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	got, err := store.GetWallet(ctx, w.OwnerID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if got.Balance != 0 {
		t.Fatalf("balance changed after rejected withdrawal: %d", got.Balance)
	}
	if entries, _ := store.Entries(ctx, w.ID, 0); len(entries) != 0 {
		t.Fatalf("ledger entry appended for rejected withdrawal: %+v", entries)
	}
}

func TestApplyUnknownOwner(t *testing.T) {
	svc := NewService(NewMemoryStore())

	_, err := svc.Apply(context.Background(), ApplyInput{OwnerID: uuid.NewString(), Amount: 100, Kind: EntryDeposit})
	if !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestApplyInvalidKindLeavesStateUntouched(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	w := newTestWallet(t, store)
	SeedBalance(store, w.OwnerID, 300)

	_, err := svc.Apply(ctx, ApplyInput{OwnerID: w.OwnerID, Amount: 100, Kind: EntryKind("TRANSFER")})
	if !errors.Is(err, ErrInvalidEntryKind) {
		t.Fatalf("expected ErrInvalidEntryKind, got %v", err)
	}

	got, _ := store.GetWallet(ctx, w.OwnerID)
	if got.Balance != 300 {
		t.Fatalf("balance changed: %d", got.Balance)
	}
	if entries, _ := store.Entries(ctx, w.ID, 0); len(entries) != 0 {
		t.Fatalf("entries appended: %+v", entries)
	}
}

func TestConcurrentWithdrawalsSingleWinner(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	w := newTestWallet(t, store)
	SeedBalance(store, w.OwnerID, 500)

	const workers = 8
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Apply(ctx, ApplyInput{OwnerID: w.OwnerID, Amount: 500, Kind: EntryWithdraw})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInsufficientFunds):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one winning withdrawal, got %d", succeeded)
	}
	if insufficient != workers-1 {
		t.Fatalf("expected %d insufficient-funds rejections, got %d", workers-1, insufficient)
	}
	got, _ := store.GetWallet(ctx, w.OwnerID)
	if got.Balance != 0 {
		t.Fatalf("expected final balance 0, got %d", got.Balance)
	}
	if entries, _ := store.Entries(ctx, w.ID, 0); len(entries) != 1 {
		t.Fatalf("expected a single entry, got %d", len(entries))
	}
}

func TestConcurrentMixAuditInvariant(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	w := newTestWallet(t, store)

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = svc.Apply(ctx, ApplyInput{OwnerID: w.OwnerID, Amount: 100, Kind: EntryDeposit})
			} else {
				_, _ = svc.Apply(ctx, ApplyInput{OwnerID: w.OwnerID, Amount: 70, Kind: EntryWithdraw})
			}
		}(i)
	}
	wg.Wait()

	got, _ := store.GetWallet(ctx, w.OwnerID)
	entries, _ := store.Entries(ctx, w.ID, 0)
	var sum int64
	for _, e := range entries {
		switch e.Kind {
		case EntryDeposit:
			sum += e.Amount
		case EntryWithdraw:
			sum -= e.Amount
		}
	}
	if sum != got.Balance {
		t.Fatalf("entry sum %d does not match balance %d", sum, got.Balance)
	}
	if got.Balance < 0 {
		t.Fatalf("balance went negative: %d", got.Balance)
	}
}

func TestEntriesDefaultLimit(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	w := newTestWallet(t, store)

	for i := 0; i < DefaultEntryLimit+5; i++ {
		if _, err := svc.Apply(ctx, ApplyInput{OwnerID: w.OwnerID, Amount: 10, Kind: EntryDeposit}); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
	}

	entries, err := store.Entries(ctx, w.ID, 0)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != DefaultEntryLimit {
		t.Fatalf("expected default cap of %d entries, got %d", DefaultEntryLimit, len(entries))
	}

	entries, err = store.Entries(ctx, w.ID, 5)
	if err != nil {
		t.Fatalf("entries with limit: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
}

func TestSettleRoundAtomic(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	w := newTestWallet(t, store)
	SeedBalance(store, w.OwnerID, 1_000)

	balance, err := svc.SettleRound(ctx, SettlementInput{OwnerID: w.OwnerID, Stake: 200, Payout: 600, Reference: "round-1"})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if balance != 1_400 {
		t.Fatalf("expected balance 1400, got %d", balance)
	}

	entries, _ := store.Entries(ctx, w.ID, 0)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for won round, got %d", len(entries))
	}
	// newest first: payout deposit then stake withdrawal
	if entries[0].Kind != EntryDeposit || entries[0].Amount != 600 {
		t.Fatalf("unexpected payout entry: %+v", entries[0])
	}
	if entries[1].Kind != EntryWithdraw || entries[1].Amount != 200 {
		t.Fatalf("unexpected stake entry: %+v", entries[1])
	}
}

func TestSettleRoundLost(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	w := newTestWallet(t, store)
	SeedBalance(store, w.OwnerID, 1_000)

	balance, err := svc.SettleRound(ctx, SettlementInput{OwnerID: w.OwnerID, Stake: 250, Payout: 0, Reference: "round-2"})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if balance != 750 {
		t.Fatalf("expected balance 750, got %d", balance)
	}
	if entries, _ := store.Entries(ctx, w.ID, 0); len(entries) != 1 {
		t.Fatalf("expected a single stake entry for lost round, got %d", len(entries))
	}
}

func TestSettleRoundStakeOverdraft(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	w := newTestWallet(t, store)
	SeedBalance(store, w.OwnerID, 100)

	_, err := svc.SettleRound(ctx, SettlementInput{OwnerID: w.OwnerID, Stake: 200, Payout: 1_000, Reference: "round-3"})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	got, _ := store.GetWallet(ctx, w.OwnerID)
	if got.Balance != 100 {
		t.Fatalf("balance changed after rejected settlement: %d", got.Balance)
	}
	if entries, _ := store.Entries(ctx, w.ID, 0); len(entries) != 0 {
		t.Fatalf("entries appended after rejected settlement: %+v", entries)
	}
}

// commitFailStore forces Commit to fail so the abort path can be observed.
type commitFailStore struct {
	*MemoryStore
}

type commitFailUnitOfWork struct {
	UnitOfWork
}

func (s commitFailStore) Begin(ctx context.Context) (UnitOfWork, error) {
	uow, err := s.MemoryStore.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return commitFailUnitOfWork{uow}, nil
}

func (u commitFailUnitOfWork) Commit(ctx context.Context) error {
	_ = u.UnitOfWork.Rollback(ctx)
	return errors.New("connection reset")
}

func TestApplyStorageFaultAbortsWhole(t *testing.T) {
	mem := NewMemoryStore()
	svc := NewService(commitFailStore{mem})
	ctx := context.Background()
	w := newTestWallet(t, mem)
	SeedBalance(mem, w.OwnerID, 400)

	_, err := svc.Apply(ctx, ApplyInput{OwnerID: w.OwnerID, Amount: 100, Kind: EntryDeposit})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}

	got, _ := mem.GetWallet(ctx, w.OwnerID)
	if got.Balance != 400 {
		t.Fatalf("balance changed after storage fault: %d", got.Balance)
	}
	if entries, _ := mem.Entries(ctx, w.ID, 0); len(entries) != 0 {
		t.Fatalf("entries appended after storage fault: %+v", entries)
	}
}
