package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/walletworks/balance-service/internal/app/domain/ledger"
	"github.com/walletworks/balance-service/internal/app/storage"
)

// Store implements the ledger storage interface backed by PostgreSQL. The
// users.balance column is a projection of balance_history; ApplyEntry is the
// only writer of both.
type Store struct {
	db *sql.DB
}

var _ storage.LedgerStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateAccount(ctx context.Context, acct ledger.Account) (ledger.Account, error) {
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now().UTC()
	}

	if acct.ID != 0 {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO users (id, balance, created_at)
			VALUES ($1, $2, $3)
		`, acct.ID, acct.Balance, acct.CreatedAt)
		if err != nil {
			return ledger.Account{}, err
		}
		return acct, nil
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (balance, created_at)
		VALUES ($1, $2)
		RETURNING id
	`, acct.Balance, acct.CreatedAt).Scan(&acct.ID)
	if err != nil {
		return ledger.Account{}, err
	}
	return acct, nil
}

func (s *Store) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `
		SELECT balance FROM users WHERE id = $1
	`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ledger.ErrAccountNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// ApplyEntry appends a history entry and recomputes the balance inside a
// single transaction. The row lock taken by SELECT ... FOR UPDATE serializes
// writers on the same user; the recomputed sum, not the locked column, is
// what authorizes the mutation. Any classified failure rolls the whole
// transaction back, including the inserted entry.
func (s *Store) ApplyEntry(ctx context.Context, userID int64, action ledger.Action, amount int64) (applied ledger.Applied, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Applied{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var before int64
	err = tx.QueryRowContext(ctx, `
		SELECT balance FROM users WHERE id = $1 FOR UPDATE
	`, userID).Scan(&before)
	if errors.Is(err, sql.ErrNoRows) {
		err = ledger.ErrAccountNotFound
		return ledger.Applied{}, err
	}
	if err != nil {
		return ledger.Applied{}, fmt.Errorf("lock user row: %w", err)
	}

	if !action.Valid() {
		err = fmt.Errorf("%w: %q", ledger.ErrUnknownAction, action)
		return ledger.Applied{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO balance_history (id, user_id, action, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), userID, string(action), amount, time.Now().UTC())
	if err != nil {
		return ledger.Applied{}, fmt.Errorf("append history entry: %w", err)
	}

	var after int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(
			CASE
				WHEN action = 'DEPOSIT' THEN amount
				WHEN action = 'PAYMENT' THEN -amount
				ELSE 0
			END), 0) AS balance
		FROM balance_history
		WHERE user_id = $1
	`, userID).Scan(&after)
	if err != nil {
		return ledger.Applied{}, fmt.Errorf("recompute balance: %w", err)
	}

	if after < 0 {
		err = ledger.ErrInsufficientFunds
		return ledger.Applied{}, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET balance = $2 WHERE id = $1
	`, userID, after)
	if err != nil {
		return ledger.Applied{}, fmt.Errorf("update balance column: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return ledger.Applied{}, fmt.Errorf("commit transaction: %w", err)
	}

	return ledger.Applied{Before: before, After: after}, nil
}

// ListEntries returns the history for a known user. An unknown user yields
// ErrAccountNotFound rather than an empty list.
func (s *Store) ListEntries(ctx context.Context, userID int64) ([]ledger.Entry, error) {
	if _, err := s.GetBalance(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, action, amount, created_at
		FROM balance_history
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Entry
	for rows.Next() {
		var entry ledger.Entry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Amount, &entry.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
