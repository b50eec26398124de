package funding

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jeezpay/jeezpay/internal/identity"
	"github.com/jeezpay/jeezpay/internal/ledger"
	"github.com/jeezpay/jeezpay/internal/wallet"
)

// DefaultCreditDescription is recorded when an admin credit carries no note.
const DefaultCreditDescription = "Admin top-up"

var (
	// ErrNotAdmin indicates the caller lacks the admin role.
	ErrNotAdmin = errors.New("only admin can credit wallets")
	// ErrInvalidAmount indicates a missing, zero or negative credit amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrTargetRequired indicates no target user was supplied.
	ErrTargetRequired = errors.New("target user is required")
	// ErrTargetNotFound indicates the target user is not registered.
	ErrTargetNotFound = errors.New("target user not found")
)

// Service performs privileged single-wallet balance injections, authorized by
// the identity collaborator's role check.
type Service struct {
	store ledger.Store
	users *identity.Service
}

// NewService constructs an admin credit service.
func NewService(store ledger.Store, users *identity.Service) *Service {
	return &Service{store: store, users: users}
}

// CreditInput captures the data for an admin balance injection.
type CreditInput struct {
	AdminID      string
	TargetUserID string
	Currency     string
	Amount       decimal.Decimal
	Description  string
}

// CreditResult reports the credited wallet's new balance.
type CreditResult struct {
	Currency   string
	NewBalance decimal.Decimal
}

// Credit ensures the target user's wallet exists, then atomically appends a
// credit entry and increments the balance. Non-admin callers and unknown
// targets are rejected before any state is touched.
func (s *Service) Credit(ctx context.Context, input CreditInput) (CreditResult, error) {
	admin, err := s.users.IsAdmin(ctx, input.AdminID)
	if err != nil {
		return CreditResult{}, err
	}
	if !admin {
		return CreditResult{}, ErrNotAdmin
	}

	currency := wallet.NormalizeCurrency(input.Currency)
	if currency == "" {
		return CreditResult{}, wallet.ErrCurrencyRequired
	}
	if input.TargetUserID == "" {
		return CreditResult{}, ErrTargetRequired
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return CreditResult{}, ErrInvalidAmount
	}

	if _, err := s.users.Find(ctx, input.TargetUserID); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return CreditResult{}, ErrTargetNotFound
		}
		return CreditResult{}, err
	}

	w, err := s.store.EnsureWallet(ctx, input.TargetUserID, currency)
	if err != nil {
		return CreditResult{}, err
	}

	description := input.Description
	if description == "" {
		description = DefaultCreditDescription
	}

	newBalance, err := s.store.Credit(ctx, w.ID, input.Amount, description)
	if err != nil {
		return CreditResult{}, err
	}
	return CreditResult{Currency: currency, NewBalance: newBalance}, nil
}
