// Package currency holds the per-document currency registry: currency codes
// with their decimal exponent, and an append-only table of dated exchange
// rates used for deterministic conversion.
package currency

import (
	"sort"
	"strings"
	"time"

	"github.com/govalues/money"
	"github.com/shopspring/decimal"

	"github.com/davmoss/moneybook/internal/errs"
)

// Currency describes a monetary unit. The code is immutable once registered;
// values denominated in the currency are scaled integers with Exponent
// decimal places.
type Currency struct {
	code     string
	exponent int
}

// Code returns the registry-unique currency code (e.g. "USD").
func (c *Currency) Code() string { return c.code }

// Exponent returns the number of decimal places of the currency's minor unit.
func (c *Currency) Exponent() int { return c.exponent }

// ratePoint is one dated exchange rate sample. Samples are kept sorted by
// date and are never removed.
type ratePoint struct {
	date time.Time
	rate decimal.Decimal
}

type ratePair struct {
	from, to string
}

// Registry owns the canonical Currency instances and exchange rates of one
// document. It is not safe for concurrent use; the owning document
// serializes access.
type Registry struct {
	byCode map[string]*Currency
	rates  map[ratePair][]ratePoint
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byCode: make(map[string]*Currency),
		rates:  make(map[ratePair][]ratePoint),
	}
}

// Register adds a currency with an explicit exponent. Codes are stored
// uppercase and must be unique.
func (r *Registry) Register(code string, exponent int) (*Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || exponent < 0 || exponent > 18 {
		return nil, errs.ErrInvalid
	}
	if _, ok := r.byCode[code]; ok {
		return nil, errs.ErrDuplicateCurrency
	}
	c := &Currency{code: code, exponent: exponent}
	r.byCode[code] = c
	return c, nil
}

// RegisterISO registers a currency whose exponent is taken from the ISO 4217
// table. Unknown codes are rejected; use Register for non-ISO units.
func (r *Registry) RegisterISO(code string) (*Currency, error) {
	curr, err := money.ParseCurr(code)
	if err != nil {
		return nil, errs.ErrInvalid
	}
	return r.Register(curr.Code(), curr.Scale())
}

// Get returns the registered currency for code, if any.
func (r *Registry) Get(code string) (*Currency, bool) {
	c, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// List returns all registered currencies sorted by code.
func (r *Registry) List() []*Currency {
	out := make([]*Currency, 0, len(r.byCode))
	for _, c := range r.byCode {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].code < out[j].code })
	return out
}

// SetRate records an exchange rate from one currency into another effective
// at date. The table is append-only: a sample at an existing date replaces
// the old value, samples are never deleted. Rates must be positive.
func (r *Registry) SetRate(from, to *Currency, date time.Time, rate decimal.Decimal) error {
	if from == nil || to == nil || from.code == to.code {
		return errs.ErrInvalid
	}
	if rate.Sign() <= 0 {
		return errs.ErrInvalid
	}
	date = DateOnly(date)
	key := ratePair{from: from.code, to: to.code}
	points := r.rates[key]
	i := sort.Search(len(points), func(i int) bool { return !points[i].date.Before(date) })
	if i < len(points) && points[i].date.Equal(date) {
		points[i].rate = rate
		return nil
	}
	points = append(points, ratePoint{})
	copy(points[i+1:], points[i:])
	points[i] = ratePoint{date: date, rate: rate}
	r.rates[key] = points
	return nil
}

// RateAt returns the exchange rate from one currency into another effective
// at or before asOf. When no direct sample exists, the reciprocal of the
// inverse pair is used. Fails with ErrNoRateAvailable otherwise.
func (r *Registry) RateAt(from, to *Currency, asOf time.Time) (decimal.Decimal, error) {
	if from == nil || to == nil {
		return decimal.Decimal{}, errs.ErrInvalid
	}
	if from.code == to.code {
		return decimal.NewFromInt(1), nil
	}
	asOf = DateOnly(asOf)
	if rate, ok := lookup(r.rates[ratePair{from: from.code, to: to.code}], asOf); ok {
		return rate, nil
	}
	if rate, ok := lookup(r.rates[ratePair{from: to.code, to: from.code}], asOf); ok {
		// Inverse pair; divide at a scale well beyond any currency exponent.
		return decimal.NewFromInt(1).DivRound(rate, 12), nil
	}
	return decimal.Decimal{}, errs.ErrNoRateAvailable
}

// Convert converts a scaled-integer value denominated in from into a scaled
// integer denominated in to, using the rate effective at asOf. Rounding at
// the target exponent is half away from zero, so equal inputs always yield
// equal outputs.
func (r *Registry) Convert(value int64, from, to *Currency, asOf time.Time) (int64, error) {
	if from == to || from.code == to.code {
		return value, nil
	}
	rate, err := r.RateAt(from, to, asOf)
	if err != nil {
		return 0, err
	}
	converted := decimal.New(value, -int32(from.exponent)).Mul(rate)
	return converted.Round(int32(to.exponent)).Shift(int32(to.exponent)).IntPart(), nil
}

// Rate is one exported rate sample, used by the storage boundary.
type Rate struct {
	From  string
	To    string
	Date  time.Time
	Value decimal.Decimal
}

// Rates returns every recorded sample ordered by pair then date.
func (r *Registry) Rates() []Rate {
	pairs := make([]ratePair, 0, len(r.rates))
	for p := range r.rates {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].from != pairs[j].from {
			return pairs[i].from < pairs[j].from
		}
		return pairs[i].to < pairs[j].to
	})
	var out []Rate
	for _, p := range pairs {
		for _, pt := range r.rates[p] {
			out = append(out, Rate{From: p.from, To: p.to, Date: pt.date, Value: pt.rate})
		}
	}
	return out
}

// lookup finds the sample with the greatest date <= asOf.
func lookup(points []ratePoint, asOf time.Time) (decimal.Decimal, bool) {
	i := sort.Search(len(points), func(i int) bool { return points[i].date.After(asOf) })
	if i == 0 {
		return decimal.Decimal{}, false
	}
	return points[i-1].rate, true
}

// DateOnly truncates t to a UTC calendar date. All rate lookups and
// transaction dates compare at day granularity.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
