package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds occurs when the sender wallet lacks balance to
	// cover a requested debit. Overdrafts are rejected, never recorded.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrWalletNotFound indicates the referenced wallet does not exist.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrNonPositiveAmount indicates an amount that is zero or negative. The
	// sign of a movement is carried by the entry kind, never by the amount.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrSameWallet indicates a transfer naming one wallet on both sides.
	ErrSameWallet = errors.New("cannot transfer a wallet to itself")
)

// EntryKind discriminates ledger entry directions.
type EntryKind string

const (
	// KindCredit increases the wallet balance.
	KindCredit EntryKind = "credit"
	// KindDebit decreases the wallet balance.
	KindDebit EntryKind = "debit"
)

// DefaultHistoryLimit caps history reads when the caller does not specify one.
const DefaultHistoryLimit = 50

// Wallet is a per-user, per-currency balance record. The balance column is
// always the running sum of the wallet's entries: credits minus debits.
type Wallet struct {
	ID        string
	UserID    string
	Currency  string
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// Entry is an immutable record of one credit or debit applied to a wallet.
type Entry struct {
	ID          string
	WalletID    string
	Kind        EntryKind
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

// TransferResult captures both post-transfer balances of a double posting.
type TransferResult struct {
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
}

// Store defines the contract implemented by ledger backends (e.g. Postgres).
// Every mutating call pairs its balance update with the matching entries in
// one atomic unit; no partial debit or credit is ever observable.
type Store interface {
	// EnsureWallet returns the wallet for (userID, currency), creating it
	// with balance zero on first reference. Safe under concurrent first
	// access: exactly one wallet row exists afterwards.
	EnsureWallet(ctx context.Context, userID, currency string) (Wallet, error)

	// WalletsByUser lists the user's wallets ordered by currency ascending.
	WalletsByUser(ctx context.Context, userID string) ([]Wallet, error)

	// History returns up to limit entries for the wallet, most recent first.
	History(ctx context.Context, walletID string, limit int) ([]Entry, error)

	// Transfer atomically debits the from-wallet and credits the to-wallet,
	// appending one entry per side. The two wallets must differ. Wallet row
	// locks are taken in ascending wallet-id order so opposite-direction
	// transfers cannot deadlock.
	Transfer(ctx context.Context, fromWalletID, toWalletID string, amount decimal.Decimal, debitDesc, creditDesc string) (TransferResult, error)

	// Credit atomically appends a credit entry and increments the balance,
	// returning the new balance.
	Credit(ctx context.Context, walletID string, amount decimal.Decimal, description string) (decimal.Decimal, error)
}
