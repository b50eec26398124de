package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type inMemoryStore struct {
	mu      sync.RWMutex
	wallets map[string]Wallet  // wallet id -> wallet
	index   map[string]string  // userID|currency -> wallet id
	entries map[string][]Entry // wallet id -> entries in append order
	seq     int64              // breaks created_at ties in history ordering
}

// NewInMemory creates a concurrency-safe in-memory ledger store useful for
// unit tests. The single mutex serializes mutations, which trivially
// satisfies the no-lost-update contract.
func NewInMemory() Store {
	return &inMemoryStore{
		wallets: make(map[string]Wallet),
		index:   make(map[string]string),
		entries: make(map[string][]Entry),
	}
}

func walletKey(userID, currency string) string {
	return userID + "|" + currency
}

func (s *inMemoryStore) EnsureWallet(_ context.Context, userID, currency string) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := walletKey(userID, currency)
	if id, ok := s.index[key]; ok {
		return s.wallets[id], nil
	}

	w := Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		Currency:  currency,
		Balance:   decimal.Zero,
		CreatedAt: time.Now().UTC(),
	}
	s.wallets[w.ID] = w
	s.index[key] = w.ID
	return w, nil
}

func (s *inMemoryStore) WalletsByUser(_ context.Context, userID string) ([]Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var wallets []Wallet
	for _, w := range s.wallets {
		if w.UserID == userID {
			wallets = append(wallets, w)
		}
	}
	for i := 1; i < len(wallets); i++ {
		for j := i; j > 0 && wallets[j].Currency < wallets[j-1].Currency; j-- {
			wallets[j], wallets[j-1] = wallets[j-1], wallets[j]
		}
	}
	return wallets, nil
}

func (s *inMemoryStore) History(_ context.Context, walletID string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.wallets[walletID]; !ok {
		return nil, ErrWalletNotFound
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	all := s.entries[walletID]
	var out []Entry
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *inMemoryStore) Transfer(_ context.Context, fromWalletID, toWalletID string, amount decimal.Decimal, debitDesc, creditDesc string) (TransferResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return TransferResult{}, ErrNonPositiveAmount
	}
	if fromWalletID == toWalletID {
		return TransferResult{}, ErrSameWallet
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.wallets[fromWalletID]
	if !ok {
		return TransferResult{}, ErrWalletNotFound
	}
	to, ok := s.wallets[toWalletID]
	if !ok {
		return TransferResult{}, ErrWalletNotFound
	}

	if from.Balance.LessThan(amount) {
		return TransferResult{}, ErrInsufficientFunds
	}

	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)
	s.wallets[from.ID] = from
	s.wallets[to.ID] = to
	s.append(from.ID, KindDebit, amount, debitDesc)
	s.append(to.ID, KindCredit, amount, creditDesc)

	return TransferResult{FromBalance: from.Balance, ToBalance: to.Balance}, nil
}

func (s *inMemoryStore) Credit(_ context.Context, walletID string, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrNonPositiveAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[walletID]
	if !ok {
		return decimal.Zero, ErrWalletNotFound
	}

	w.Balance = w.Balance.Add(amount)
	s.wallets[w.ID] = w
	s.append(w.ID, KindCredit, amount, description)
	return w.Balance, nil
}

// append records an entry; callers hold the write lock.
func (s *inMemoryStore) append(walletID string, kind EntryKind, amount decimal.Decimal, description string) {
	s.seq++
	s.entries[walletID] = append(s.entries[walletID], Entry{
		ID:          uuid.NewString(),
		WalletID:    walletID,
		Kind:        kind,
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now().UTC().Add(time.Duration(s.seq)), // strictly increasing
	})
}
