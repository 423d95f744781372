package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToMinorUnits converts a decimal currency amount to integer minor units,
// rounding to the nearest unit. Amounts that are not strictly positive after
// conversion are rejected with ErrInvalidAmount.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, ErrInvalidAmount
	}
	minor := amount.Shift(2).Round(0)
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: amount out of range", ErrInvalidAmount)
	}
	units := minor.IntPart()
	if units <= 0 {
		return 0, ErrInvalidAmount
	}
	return units, nil
}

// FormatMinorUnits renders minor units as a fixed two-decimal string, e.g.
// 5000 -> "50.00".
func FormatMinorUnits(units int64) string {
	return decimal.New(units, -2).StringFixed(2)
}
