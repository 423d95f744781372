// Package ledger defines the balance domain: accounts, append-only history
// entries and the monetary arithmetic shared by every layer.
package ledger

import "time"

// Action identifies the direction of a ledger entry.
type Action string

const (
	// ActionDeposit increases an account balance.
	ActionDeposit Action = "DEPOSIT"
	// ActionPayment decreases an account balance.
	ActionPayment Action = "PAYMENT"
)

// Valid reports whether the action is one of the supported kinds.
func (a Action) Valid() bool {
	return a == ActionDeposit || a == ActionPayment
}

// Delta returns the signed minor-unit effect of the action for amount.
func (a Action) Delta(amount int64) int64 {
	if a == ActionPayment {
		return -amount
	}
	return amount
}

// Account is a user balance row. Balance is a denormalized projection of the
// entry history, never an independent source of truth.
type Account struct {
	ID        int64
	Balance   int64 // minor units
	CreatedAt time.Time
}

// Entry is an immutable history record. Amount is always positive; the sign
// is implied by Action.
type Entry struct {
	ID        string
	UserID    int64
	Action    Action
	Amount    int64 // minor units
	CreatedAt time.Time
}

// Applied reports the balances observed inside a committed write transaction.
type Applied struct {
	Before int64 // minor units, informational
	After  int64 // minor units, recomputed from history
}

// Source tags where a balance read came from.
type Source string

const (
	SourceCache Source = "cache"
	SourceDB    Source = "db"
)

// Balance is the read-path result.
type Balance struct {
	Amount string // fixed two-decimal string
	Source Source
}

// Receipt is the write-path result.
type Receipt struct {
	BalanceBefore string
	BalanceAfter  string
}
