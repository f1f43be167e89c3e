// Package amount implements the fixed-precision monetary value used across
// the book. A value is an integer scaled by 10^exponent of its currency, so
// arithmetic never drifts the way floats do.
package amount

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/davmoss/moneybook/internal/currency"
	"github.com/davmoss/moneybook/internal/errs"
)

// Amount is a monetary value bound to a currency. The zero Amount has no
// currency and only compares equal to itself; callers obtain usable values
// through New, Zero or Parse.
type Amount struct {
	value int64
	cur   *currency.Currency
}

// New returns an amount of value minor units in cur.
func New(cur *currency.Currency, value int64) Amount {
	return Amount{value: value, cur: cur}
}

// Zero returns the zero amount of cur.
func Zero(cur *currency.Currency) Amount {
	return Amount{cur: cur}
}

// MinorUnits returns the scaled integer value.
func (a Amount) MinorUnits() int64 { return a.value }

// Currency returns the currency the amount is denominated in.
func (a Amount) Currency() *currency.Currency { return a.cur }

// IsZero reports whether the value is zero.
func (a Amount) IsZero() bool { return a.value == 0 }

// IsNegative reports whether the value is below zero.
func (a Amount) IsNegative() bool { return a.value < 0 }

// Neg returns the amount with its sign flipped.
func (a Amount) Neg() Amount { return Amount{value: -a.value, cur: a.cur} }

// Add returns a+b. Both operands must share a currency.
func (a Amount) Add(b Amount) (Amount, error) {
	if !sameCurrency(a, b) {
		return Amount{}, errs.ErrCurrencyMismatch
	}
	return Amount{value: a.value + b.value, cur: a.cur}, nil
}

// Sub returns a-b. Both operands must share a currency.
func (a Amount) Sub(b Amount) (Amount, error) {
	if !sameCurrency(a, b) {
		return Amount{}, errs.ErrCurrencyMismatch
	}
	return Amount{value: a.value - b.value, cur: a.cur}, nil
}

// Cmp compares two amounts of the same currency: -1 if a < b, 0 if equal,
// +1 if a > b. Comparison across currencies is undefined and rejected.
func (a Amount) Cmp(b Amount) (int, error) {
	if !sameCurrency(a, b) {
		return 0, errs.ErrCurrencyMismatch
	}
	switch {
	case a.value < b.value:
		return -1, nil
	case a.value > b.value:
		return 1, nil
	}
	return 0, nil
}

// Equal reports whether two amounts share currency and value.
func (a Amount) Equal(b Amount) bool {
	return sameCurrency(a, b) && a.value == b.value
}

// ConvertedTo returns the amount converted into to using the registry rate
// effective at asOf. Converting into the amount's own currency is the
// identity.
func (a Amount) ConvertedTo(reg *currency.Registry, to *currency.Currency, asOf time.Time) (Amount, error) {
	if a.cur == nil || to == nil {
		return Amount{}, errs.ErrInvalid
	}
	if a.cur.Code() == to.Code() {
		return a, nil
	}
	v, err := reg.Convert(a.value, a.cur, to, asOf)
	if err != nil {
		return Amount{}, err
	}
	return Amount{value: v, cur: to}, nil
}

// Parse reads a decimal string into an amount of cur. The string must be
// exactly representable at the currency's exponent; "1.005" in a 2-exponent
// currency is rejected rather than rounded.
func Parse(cur *currency.Currency, s string) (Amount, error) {
	if cur == nil {
		return Amount{}, errs.ErrInvalid
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, errs.ErrInvalid
	}
	scaled := d.Shift(int32(cur.Exponent()))
	if !scaled.IsInteger() {
		return Amount{}, errs.ErrInvalid
	}
	if !scaled.BigInt().IsInt64() {
		return Amount{}, errs.ErrInvalid
	}
	return Amount{value: scaled.IntPart(), cur: cur}, nil
}

// String formats the amount as a plain decimal with the currency's full
// exponent, e.g. 12345 minor units of USD -> "123.45". Parse(String()) is
// the identity.
func (a Amount) String() string {
	if a.cur == nil {
		return "0"
	}
	return decimal.New(a.value, -int32(a.cur.Exponent())).StringFixed(int32(a.cur.Exponent()))
}

func sameCurrency(a, b Amount) bool {
	if a.cur == nil || b.cur == nil {
		return false
	}
	return a.cur.Code() == b.cur.Code()
}
