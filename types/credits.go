package types

import (
	"fmt"
	"strconv"
)

// Credits is an amount of the single fungible unit of value moved by the
// engine. All arithmetic is integer-only — no floating point.
type Credits int64

// ZeroCredits is the zero amount.
const ZeroCredits Credits = 0

// NewCredits creates a Credits value from an int64 amount.
func NewCredits(amount int64) Credits { return Credits(amount) }

// Int64 returns the raw amount.
func (c Credits) Int64() int64 { return int64(c) }

// IsZero reports whether the amount is zero.
func (c Credits) IsZero() bool { return c == 0 }

// IsPositive reports whether the amount is greater than zero.
func (c Credits) IsPositive() bool { return c > 0 }

// IsNegative reports whether the amount is less than zero.
func (c Credits) IsNegative() bool { return c < 0 }

// Add returns the sum of two amounts.
func (c Credits) Add(other Credits) Credits { return c + other }

// Subtract returns the difference of two amounts.
func (c Credits) Subtract(other Credits) Credits { return c - other }

// Split divides the amount into a platform fee and a creator share.
// The fee is floor(amount * feePercent / 100); the share is the remainder.
// Rounding down on the fee side (and therefore up on the share side) is a
// compatibility guarantee — callers reconcile against ledgers that use the
// same floor division.
func (c Credits) Split(feePercent int64) (fee, share Credits) {
	if feePercent < 0 {
		feePercent = 0
	}
	fee = Credits(int64(c) * feePercent / 100)
	share = c - fee
	return fee, share
}

// String formats the amount with the unit suffix, e.g. "950 credits".
func (c Credits) String() string {
	return strconv.FormatInt(int64(c), 10) + " credits"
}

// MarshalJSON encodes the amount as a bare integer.
func (c Credits) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(c), 10)), nil
}

// UnmarshalJSON decodes a bare integer amount.
func (c *Credits) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("credits: unmarshal %q: %w", string(data), err)
	}
	*c = Credits(v)
	return nil
}
