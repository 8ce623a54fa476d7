package ledger

// SeedBalance sets a wallet balance directly when the store is the in-memory
// implementation. Test helper only; production balances move through Service.
func SeedBalance(s Store, ownerID string, balance int64) {
	mem, ok := s.(*MemoryStore)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	if mw, ok := mem.byOwner[ownerID]; ok {
		mw.wallet.Balance = balance
	}
}
