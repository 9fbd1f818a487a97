// Package money provides exact fixed-point monetary amounts.
//
// An Amount is an integer numerator over a positive denominator, the same
// representation a ledger uses for split values (e.g. -86930/100 is -869.30).
// Arithmetic only happens between amounts that already share a denominator:
// mixed denominators are rejected with ErrDenomMismatch instead of being
// rescaled, so no operation can round silently.
//
// Example usage:
//
//	target, err := money.Parse("-869.30", 100)
//	delta, err := target.Sub(cleared)
package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	// ErrDenomMismatch is returned when two amounts with different denominators meet.
	ErrDenomMismatch = errors.New("amounts use different denominators")

	// ErrInvalidDenom is returned for a zero or negative denominator.
	ErrInvalidDenom = errors.New("denominator must be positive")

	// ErrPrecision is returned when a value cannot be represented exactly in the requested denominator.
	ErrPrecision = errors.New("amount has more precision than the denominator allows")

	// ErrOverflow is returned when a result does not fit in an int64 numerator.
	ErrOverflow = errors.New("amount overflows int64")
)

// Amount is an exact fixed-point value: Num / Denom.
type Amount struct {
	Num   int64 `json:"num"`
	Denom int64 `json:"denom"`
}

// New creates an amount, validating the denominator.
func New(num, denom int64) (Amount, error) {
	if denom <= 0 {
		return Amount{}, fmt.Errorf("%w: %d", ErrInvalidDenom, denom)
	}
	return Amount{Num: num, Denom: denom}, nil
}

// Zero returns a zero amount in the given denominator.
func Zero(denom int64) Amount {
	return Amount{Num: 0, Denom: denom}
}

// Parse converts a decimal string such as "-869.30" into an amount with the
// given denominator. The conversion must be exact.
func Parse(s string, denom int64) (Amount, error) {
	if denom <= 0 {
		return Amount{}, fmt.Errorf("%w: %d", ErrInvalidDenom, denom)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	scaled := d.Mul(decimal.NewFromInt(denom))
	if !scaled.IsInteger() {
		return Amount{}, fmt.Errorf("%w: %s at 1/%d", ErrPrecision, s, denom)
	}

	num := scaled.BigInt()
	if !num.IsInt64() {
		return Amount{}, fmt.Errorf("%w: %s", ErrOverflow, s)
	}

	return Amount{Num: num.Int64(), Denom: denom}, nil
}

// Valid reports whether the amount has a usable denominator.
func (a Amount) Valid() bool {
	return a.Denom > 0
}

// SameDenom reports whether a and b can be combined without rescaling.
func (a Amount) SameDenom(b Amount) bool {
	return a.Denom == b.Denom
}

// Add returns a + b.
func (a Amount) Add(b Amount) (Amount, error) {
	if !a.SameDenom(b) {
		return Amount{}, fmt.Errorf("%w: %d and %d", ErrDenomMismatch, a.Denom, b.Denom)
	}
	if (b.Num > 0 && a.Num > math.MaxInt64-b.Num) || (b.Num < 0 && a.Num < math.MinInt64-b.Num) {
		return Amount{}, ErrOverflow
	}
	return Amount{Num: a.Num + b.Num, Denom: a.Denom}, nil
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) (Amount, error) {
	if b.Num == math.MinInt64 {
		return Amount{}, ErrOverflow
	}
	return a.Add(b.Neg())
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return Amount{Num: -a.Num, Denom: a.Denom}
}

// Equal reports exact equality. Amounts in different denominators are never equal.
func (a Amount) Equal(b Amount) bool {
	return a.Denom == b.Denom && a.Num == b.Num
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.Num == 0
}

// Sign returns -1, 0 or +1.
func (a Amount) Sign() int {
	switch {
	case a.Num < 0:
		return -1
	case a.Num > 0:
		return 1
	}
	return 0
}

// Decimal returns the amount as a decimal.Decimal for display and JSON.
func (a Amount) Decimal() decimal.Decimal {
	if !a.Valid() {
		return decimal.Zero
	}
	return decimal.NewFromInt(a.Num).Div(decimal.NewFromInt(a.Denom))
}

// String renders the amount in decimal notation when the denominator is a
// power of ten, and as num/denom otherwise.
func (a Amount) String() string {
	if places, ok := decimalPlaces(a.Denom); ok {
		return decimal.New(a.Num, -places).StringFixed(places)
	}
	return fmt.Sprintf("%d/%d", a.Num, a.Denom)
}

// Sum adds amounts that all share one denominator.
// An empty input yields Zero(denom).
func Sum(denom int64, amounts ...Amount) (Amount, error) {
	total := Zero(denom)
	for _, amt := range amounts {
		var err error
		total, err = total.Add(amt)
		if err != nil {
			return Amount{}, err
		}
	}
	return total, nil
}

// decimalPlaces returns k when denom == 10^k.
func decimalPlaces(denom int64) (int32, bool) {
	if denom <= 0 {
		return 0, false
	}
	var places int32
	for denom%10 == 0 {
		denom /= 10
		places++
	}
	return places, denom == 1
}
