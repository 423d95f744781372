package ledger

import "errors"

// Classified errors returned by the balance read and write paths. Callers
// dispatch on these with errors.Is; anything else is treated as internal.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrUnknownAction     = errors.New("unknown action")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
