package wallet

import (
	"context"
	"errors"
	"strings"

	"github.com/jeezpay/jeezpay/internal/ledger"
)

// ErrCurrencyRequired indicates an empty currency code was supplied.
var ErrCurrencyRequired = errors.New("currency is required")

// Service provides read-side views over the ledger: single balance, balances
// across currencies, and paginated history. Wallets are created lazily on
// first read, matching how accounts come into existence elsewhere.
type Service struct {
	store      ledger.Store
	currencies []string
}

// NewService builds a wallet query service. currencies is the default set
// auto-seeded by Balances.
func NewService(store ledger.Store, currencies []string) *Service {
	return &Service{store: store, currencies: currencies}
}

// NormalizeCurrency maps a caller-entered code to its canonical uppercase form.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Balance returns the user's wallet for the currency, creating it with a zero
// balance on first reference.
func (s *Service) Balance(ctx context.Context, userID, currency string) (ledger.Wallet, error) {
	currency = NormalizeCurrency(currency)
	if currency == "" {
		return ledger.Wallet{}, ErrCurrencyRequired
	}
	return s.store.EnsureWallet(ctx, userID, currency)
}

// Balances ensures every default-currency wallet exists and returns all of
// the user's wallets ordered by currency ascending.
func (s *Service) Balances(ctx context.Context, userID string) ([]ledger.Wallet, error) {
	for _, currency := range s.currencies {
		if _, err := s.store.EnsureWallet(ctx, userID, currency); err != nil {
			return nil, err
		}
	}
	return s.store.WalletsByUser(ctx, userID)
}

// History returns the most recent entries for the user's currency wallet,
// newest first. A non-positive limit falls back to the ledger default.
func (s *Service) History(ctx context.Context, userID, currency string, limit int) ([]ledger.Entry, error) {
	w, err := s.Balance(ctx, userID, currency)
	if err != nil {
		return nil, err
	}
	return s.store.History(ctx, w.ID, limit)
}

// Seed provisions the default currency wallets for a user. The identity
// collaborator calls this at account-creation time.
func (s *Service) Seed(ctx context.Context, userID string) error {
	for _, currency := range s.currencies {
		if _, err := s.store.EnsureWallet(ctx, userID, currency); err != nil {
			return err
		}
	}
	return nil
}
