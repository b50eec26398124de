package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// entrySum recomputes a wallet balance from its ledger entries.
func entrySum(t *testing.T, s Store, walletID string) decimal.Decimal {
	t.Helper()
	entries, err := s.History(context.Background(), walletID, 1000)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	total := decimal.Zero
	for _, e := range entries {
		switch e.Kind {
		case KindCredit:
			total = total.Add(e.Amount)
		case KindDebit:
			total = total.Sub(e.Amount)
		default:
			t.Fatalf("unexpected entry kind %q", e.Kind)
		}
	}
	return total
}

func TestEnsureWalletIdempotentUnderConcurrency(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	userID := uuid.NewString()

	const workers = 16
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := s.EnsureWallet(ctx, userID, "USDT")
			if err != nil {
				t.Errorf("ensure wallet: %v", err)
				return
			}
			ids[i] = w.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("expected a single wallet row, got ids %s and %s", ids[0], id)
		}
	}

	wallets, err := s.WalletsByUser(ctx, userID)
	if err != nil {
		t.Fatalf("wallets by user: %v", err)
	}
	if len(wallets) != 1 {
		t.Fatalf("expected 1 wallet, got %d", len(wallets))
	}
	if !wallets[0].Balance.IsZero() {
		t.Fatalf("fresh wallet balance should be zero, got %s", wallets[0].Balance)
	}
}

func TestTransferMaintainsLedgerInvariant(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	from, _ := s.EnsureWallet(ctx, uuid.NewString(), "USDT")
	to, _ := s.EnsureWallet(ctx, uuid.NewString(), "USDT")
	SeedBalance(s, from.ID, dec("100"))

	res, err := s.Transfer(ctx, from.ID, to.ID, dec("30"), "sent", "received")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !res.FromBalance.Equal(dec("70")) || !res.ToBalance.Equal(dec("30")) {
		t.Fatalf("unexpected balances: from=%s to=%s", res.FromBalance, res.ToBalance)
	}

	for _, walletID := range []string{from.ID, to.ID} {
		wallets, _ := s.WalletsByUser(ctx, walletOwner(t, s, walletID))
		for _, w := range wallets {
			if w.ID != walletID {
				continue
			}
			if sum := entrySum(t, s, walletID); !sum.Equal(w.Balance) {
				t.Fatalf("wallet %s: balance %s != entry sum %s", walletID, w.Balance, sum)
			}
		}
	}
}

func walletOwner(t *testing.T, s Store, walletID string) string {
	t.Helper()
	mem := s.(*inMemoryStore)
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	w, ok := mem.wallets[walletID]
	if !ok {
		t.Fatalf("wallet %s not found", walletID)
	}
	return w.UserID
}

func TestTransferRejectsInsufficientFunds(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	from, _ := s.EnsureWallet(ctx, uuid.NewString(), "SDG")
	to, _ := s.EnsureWallet(ctx, uuid.NewString(), "SDG")
	SeedBalance(s, from.ID, dec("10"))

	if _, err := s.Transfer(ctx, from.ID, to.ID, dec("10.01"), "", ""); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// Nothing moved and no entries beyond the seed were written.
	entries, _ := s.History(ctx, from.ID, 10)
	if len(entries) != 1 {
		t.Fatalf("expected only the seed entry, got %d entries", len(entries))
	}

	// Exact-balance transfer zeroes out, never negative.
	res, err := s.Transfer(ctx, from.ID, to.ID, dec("10"), "", "")
	if err != nil {
		t.Fatalf("exact-balance transfer: %v", err)
	}
	if !res.FromBalance.IsZero() {
		t.Fatalf("expected zero sender balance, got %s", res.FromBalance)
	}
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	from, _ := s.EnsureWallet(ctx, uuid.NewString(), "EGP")
	to, _ := s.EnsureWallet(ctx, uuid.NewString(), "EGP")
	SeedBalance(s, from.ID, dec("50"))

	for _, amount := range []string{"0", "-5"} {
		if _, err := s.Transfer(ctx, from.ID, to.ID, dec(amount), "", ""); err != ErrNonPositiveAmount {
			t.Fatalf("amount %s: expected non-positive amount error, got %v", amount, err)
		}
	}
	if _, err := s.Credit(ctx, from.ID, dec("-1"), ""); err != ErrNonPositiveAmount {
		t.Fatalf("expected non-positive amount error, got %v", err)
	}
}

func TestTransferRejectsSameWallet(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	w, _ := s.EnsureWallet(ctx, uuid.NewString(), "USDT")
	SeedBalance(s, w.ID, dec("100"))

	if _, err := s.Transfer(ctx, w.ID, w.ID, dec("10"), "", ""); err != ErrSameWallet {
		t.Fatalf("expected same-wallet rejection, got %v", err)
	}

	// Balance untouched and still equal to the entry sum.
	wallets, _ := s.WalletsByUser(ctx, walletOwner(t, s, w.ID))
	if len(wallets) != 1 || !wallets[0].Balance.Equal(dec("100")) {
		t.Fatalf("expected balance 100, got %+v", wallets)
	}
	if sum := entrySum(t, s, w.ID); !sum.Equal(dec("100")) {
		t.Fatalf("expected entry sum 100, got %s", sum)
	}
}

func TestCreditIncrementsBalance(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	w, _ := s.EnsureWallet(ctx, uuid.NewString(), "USDT")

	newBalance, err := s.Credit(ctx, w.ID, dec("100"), "Admin top-up")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if !newBalance.Equal(dec("100")) {
		t.Fatalf("expected balance 100, got %s", newBalance)
	}

	entries, _ := s.History(ctx, w.ID, 10)
	if len(entries) != 1 || entries[0].Kind != KindCredit || entries[0].Description != "Admin top-up" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if sum := entrySum(t, s, w.ID); !sum.Equal(newBalance) {
		t.Fatalf("balance %s != entry sum %s", newBalance, sum)
	}
}

func TestHistoryLimitAndOrdering(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	w, _ := s.EnsureWallet(ctx, uuid.NewString(), "UGX")
	for i := 0; i < 60; i++ {
		if _, err := s.Credit(ctx, w.ID, dec("1"), "top-up"); err != nil {
			t.Fatalf("credit %d: %v", i, err)
		}
	}

	entries, err := s.History(ctx, w.ID, DefaultHistoryLimit)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != DefaultHistoryLimit {
		t.Fatalf("expected %d entries, got %d", DefaultHistoryLimit, len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Fatalf("history not descending at index %d", i)
		}
	}
}

func TestConcurrentOppositeTransfersNoLostUpdate(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	a, _ := s.EnsureWallet(ctx, uuid.NewString(), "USDT")
	b, _ := s.EnsureWallet(ctx, uuid.NewString(), "USDT")
	SeedBalance(s, a.ID, dec("100"))
	SeedBalance(s, b.ID, dec("10"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := s.Transfer(ctx, a.ID, b.ID, dec("30"), "", ""); err != nil {
			t.Errorf("a->b transfer: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := s.Transfer(ctx, b.ID, a.ID, dec("10"), "", ""); err != nil {
			t.Errorf("b->a transfer: %v", err)
		}
	}()
	wg.Wait()

	finalA := entrySum(t, s, a.ID)
	finalB := entrySum(t, s, b.ID)
	if !finalA.Equal(dec("80")) || !finalB.Equal(dec("30")) {
		t.Fatalf("expected 80/30, got %s/%s", finalA, finalB)
	}

	entriesA, _ := s.History(ctx, a.ID, 100)
	entriesB, _ := s.History(ctx, b.ID, 100)
	// 2 seeds + 2 entries per transfer.
	if got := len(entriesA) + len(entriesB); got != 6 {
		t.Fatalf("expected 6 total entries, got %d", got)
	}
}
