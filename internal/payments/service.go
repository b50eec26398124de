package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jeezpay/jeezpay/internal/identity"
	"github.com/jeezpay/jeezpay/internal/ledger"
	"github.com/jeezpay/jeezpay/internal/notification"
	"github.com/jeezpay/jeezpay/internal/wallet"
)

var (
	// ErrInvalidAmount indicates a missing, zero or negative transfer amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrReceiverRequired indicates an empty receiver phone.
	ErrReceiverRequired = errors.New("receiver phone is required")
	// ErrReceiverNotFound indicates no user owns the given phone.
	ErrReceiverNotFound = errors.New("receiver not found")
	// ErrSelfTransfer indicates sender and resolved receiver are the same user.
	ErrSelfTransfer = errors.New("SELF_TRANSFER")
)

// Service coordinates wallet-to-wallet transfers: receiver resolution,
// self-transfer prevention, wallet provisioning and the atomic double posting.
type Service struct {
	store    ledger.Store
	users    *identity.Service
	wallets  *wallet.Service
	notifier notification.Notifier
}

// NewService constructs a payment service.
func NewService(store ledger.Store, users *identity.Service, wallets *wallet.Service, notifier notification.Notifier) *Service {
	return &Service{store: store, users: users, wallets: wallets, notifier: notifier}
}

// TransferInput captures the data needed to move funds between two users.
type TransferInput struct {
	SenderID      string
	ReceiverPhone string
	Currency      string
	Amount        decimal.Decimal
	Description   string
}

// TransferResult describes the ledger outcome of a transfer.
type TransferResult struct {
	SenderBalance   decimal.Decimal
	ReceiverBalance decimal.Decimal
	Currency        string
}

// Transfer moves amount from the sender's currency wallet to the wallet of
// the user resolved from the receiver phone. Validation failures leave no
// trace; once validation passes the movement is all-or-nothing.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	currency := wallet.NormalizeCurrency(input.Currency)
	if currency == "" {
		return TransferResult{}, wallet.ErrCurrencyRequired
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return TransferResult{}, ErrInvalidAmount
	}
	if input.ReceiverPhone == "" {
		return TransferResult{}, ErrReceiverRequired
	}

	receiver, err := s.users.Resolve(ctx, input.ReceiverPhone)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) || errors.Is(err, identity.ErrPhoneRequired) {
			return TransferResult{}, ErrReceiverNotFound
		}
		return TransferResult{}, err
	}
	if receiver.ID == input.SenderID {
		return TransferResult{}, ErrSelfTransfer
	}

	from, err := s.wallets.Balance(ctx, input.SenderID, currency)
	if err != nil {
		return TransferResult{}, err
	}
	to, err := s.wallets.Balance(ctx, receiver.ID, currency)
	if err != nil {
		return TransferResult{}, err
	}

	debitDesc := input.Description
	creditDesc := input.Description
	if input.Description == "" {
		debitDesc = fmt.Sprintf("Transfer to %s", receiver.Phone)
		creditDesc = "Transfer received"
	}

	res, err := s.store.Transfer(ctx, from.ID, to.ID, input.Amount, debitDesc, creditDesc)
	if err != nil {
		return TransferResult{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: receiver.ID,
			Body:        fmt.Sprintf("You received %s %s", input.Amount.String(), currency),
		})
	}

	return TransferResult{SenderBalance: res.FromBalance, ReceiverBalance: res.ToBalance, Currency: currency}, nil
}
