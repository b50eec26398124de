package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore persists wallets and their entries in PostgreSQL. Balance
// updates ride in the same transaction as the entries they summarize, with
// wallet rows locked FOR UPDATE.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureWallet guarantees a wallet row exists for (userID, currency). A
// concurrent creator losing the insert race lands on the unique index and
// re-fetches the winner's row.
func (s *PostgresStore) EnsureWallet(ctx context.Context, userID, currency string) (Wallet, error) {
	owner, err := uuid.Parse(userID)
	if err != nil {
		return Wallet{}, fmt.Errorf("parse user id: %w", err)
	}

	_, err = s.db.Exec(ctx, `INSERT INTO wallets (id, user_id, currency, balance, created_at)
        VALUES ($1, $2, $3, 0, $4)
        ON CONFLICT (user_id, currency) DO NOTHING`, uuid.New(), owner, currency, time.Now().UTC())
	if err != nil {
		return Wallet{}, err
	}

	row := s.db.QueryRow(ctx, `SELECT id, user_id, currency, balance::text, created_at
        FROM wallets WHERE user_id = $1 AND currency = $2`, owner, currency)
	return scanWallet(row)
}

// WalletsByUser lists the user's wallets ordered by currency.
func (s *PostgresStore) WalletsByUser(ctx context.Context, userID string) ([]Wallet, error) {
	owner, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT id, user_id, currency, balance::text, created_at
        FROM wallets WHERE user_id = $1 ORDER BY currency ASC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// History returns the wallet's most recent entries, newest first.
func (s *PostgresStore) History(ctx context.Context, walletID string, limit int) ([]Entry, error) {
	wid, err := uuid.Parse(walletID)
	if err != nil {
		return nil, ErrWalletNotFound
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.db.Query(ctx, `SELECT id, wallet_id, kind, amount::text, description, created_at
        FROM transactions WHERE wallet_id = $1
        ORDER BY created_at DESC, id DESC LIMIT $2`, wid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			id, owner uuid.UUID
			amount    string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &owner, &e.Kind, &amount, &e.Description, &createdAt); err != nil {
			return nil, err
		}
		e.ID = id.String()
		e.WalletID = owner.String()
		e.CreatedAt = createdAt.UTC()
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse entry amount: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Transfer posts a debit against the from-wallet and a matching credit against
// the to-wallet inside one transaction.
func (s *PostgresStore) Transfer(ctx context.Context, fromWalletID, toWalletID string, amount decimal.Decimal, debitDesc, creditDesc string) (TransferResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return TransferResult{}, ErrNonPositiveAmount
	}

	fromID, err := uuid.Parse(fromWalletID)
	if err != nil {
		return TransferResult{}, ErrWalletNotFound
	}
	toID, err := uuid.Parse(toWalletID)
	if err != nil {
		return TransferResult{}, ErrWalletNotFound
	}
	if fromID == toID {
		return TransferResult{}, ErrSameWallet
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransferResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	// Lock both rows in ascending wallet-id order regardless of transfer
	// direction, so two opposite-direction transfers on the same pair cannot
	// deadlock.
	balances := make(map[uuid.UUID]decimal.Decimal, 2)
	for _, id := range lockOrder(fromID, toID) {
		bal, err := lockWalletBalance(ctx, tx, id)
		if err != nil {
			return TransferResult{}, err
		}
		balances[id] = bal
	}

	if balances[fromID].LessThan(amount) {
		return TransferResult{}, ErrInsufficientFunds
	}

	now := time.Now().UTC()
	fromBalance := balances[fromID].Sub(amount)
	toBalance := balances[toID].Add(amount)

	if err := appendEntry(ctx, tx, fromID, KindDebit, amount, debitDesc, now); err != nil {
		return TransferResult{}, err
	}
	if err := setWalletBalance(ctx, tx, fromID, fromBalance); err != nil {
		return TransferResult{}, err
	}
	if err := appendEntry(ctx, tx, toID, KindCredit, amount, creditDesc, now); err != nil {
		return TransferResult{}, err
	}
	if err := setWalletBalance(ctx, tx, toID, toBalance); err != nil {
		return TransferResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransferResult{}, err
	}

	return TransferResult{FromBalance: fromBalance, ToBalance: toBalance}, nil
}

// Credit appends a credit entry and increments the wallet balance atomically.
func (s *PostgresStore) Credit(ctx context.Context, walletID string, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrNonPositiveAmount
	}

	wid, err := uuid.Parse(walletID)
	if err != nil {
		return decimal.Zero, ErrWalletNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	balance, err := lockWalletBalance(ctx, tx, wid)
	if err != nil {
		return decimal.Zero, err
	}
	newBalance := balance.Add(amount)

	if err := appendEntry(ctx, tx, wid, KindCredit, amount, description, time.Now().UTC()); err != nil {
		return decimal.Zero, err
	}
	if err := setWalletBalance(ctx, tx, wid, newBalance); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

func lockOrder(a, b uuid.UUID) [2]uuid.UUID {
	if a.String() <= b.String() {
		return [2]uuid.UUID{a, b}
	}
	return [2]uuid.UUID{b, a}
}

func lockWalletBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (decimal.Decimal, error) {
	var raw string
	err := tx.QueryRow(ctx, `SELECT balance::text FROM wallets WHERE id = $1 FOR UPDATE`, walletID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrWalletNotFound
		}
		return decimal.Zero, err
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse wallet balance: %w", err)
	}
	return balance, nil
}

func appendEntry(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, kind EntryKind, amount decimal.Decimal, description string, at time.Time) error {
	_, err := tx.Exec(ctx, `INSERT INTO transactions (id, wallet_id, kind, amount, description, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, uuid.New(), walletID, string(kind), amount.String(), description, at)
	return err
}

func setWalletBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	_, err := tx.Exec(ctx, `UPDATE wallets SET balance = $1 WHERE id = $2`, balance.String(), walletID)
	return err
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		id, owner uuid.UUID
		balance   string
		createdAt time.Time
	)
	if err := row.Scan(&id, &owner, &w.Currency, &balance, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.UserID = owner.String()
	w.CreatedAt = createdAt.UTC()
	var err error
	if w.Balance, err = decimal.NewFromString(balance); err != nil {
		return Wallet{}, fmt.Errorf("parse wallet balance: %w", err)
	}
	return w, nil
}
