package storage

import (
	"context"

	"github.com/walletworks/balance-service/internal/app/domain/ledger"
)

// LedgerStore persists accounts and their append-only balance history.
//
// ApplyEntry is the write path's balance authority: it must serialize
// concurrent calls for the same user, append the entry, recompute the
// balance as the signed sum over the user's full history, reject a negative
// result with ledger.ErrInsufficientFunds, and leave no trace of a rejected
// entry. Implementations return ledger.ErrAccountNotFound when the user row
// does not exist and ledger.ErrUnknownAction for unsupported actions.
type LedgerStore interface {
	CreateAccount(ctx context.Context, acct ledger.Account) (ledger.Account, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	ApplyEntry(ctx context.Context, userID int64, action ledger.Action, amount int64) (ledger.Applied, error)
	ListEntries(ctx context.Context, userID int64) ([]ledger.Entry, error)
}
