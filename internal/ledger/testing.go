package ledger

import "github.com/shopspring/decimal"

// SeedBalance is a test helper that funds a wallet on the in-memory store. It
// records a matching credit entry so the balance/entry-sum invariant keeps
// holding for seeded wallets.
func SeedBalance(s Store, walletID string, amount decimal.Decimal) {
	mem, ok := s.(*inMemoryStore)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	w, ok := mem.wallets[walletID]
	if !ok {
		return
	}
	w.Balance = w.Balance.Add(amount)
	mem.wallets[w.ID] = w
	mem.append(w.ID, KindCredit, amount, "seed")
}
