package currency

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/davmoss/moneybook/internal/errs"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRegister(t *testing.T) {
	reg := NewRegistry()

	usd, err := reg.Register("usd", 2)
	require.NoError(t, err)
	require.Equal(t, "USD", usd.Code())
	require.Equal(t, 2, usd.Exponent())

	// codes are unique regardless of case
	_, err = reg.Register("USD", 2)
	require.ErrorIs(t, err, errs.ErrDuplicateCurrency)

	got, ok := reg.Get("usd")
	require.True(t, ok)
	require.Same(t, usd, got)
}

func TestRegisterISO(t *testing.T) {
	reg := NewRegistry()

	jpy, err := reg.RegisterISO("JPY")
	require.NoError(t, err)
	require.Equal(t, 0, jpy.Exponent())

	usd, err := reg.RegisterISO("USD")
	require.NoError(t, err)
	require.Equal(t, 2, usd.Exponent())

	_, err = reg.RegisterISO("NOPE")
	require.ErrorIs(t, err, errs.ErrInvalid)
}

func TestRateAtNearestEarlier(t *testing.T) {
	reg := NewRegistry()
	usd, _ := reg.Register("USD", 2)
	eur, _ := reg.Register("EUR", 2)

	require.NoError(t, reg.SetRate(eur, usd, day(2026, 3, 2), decimal.RequireFromString("1.08")))
	require.NoError(t, reg.SetRate(eur, usd, day(2026, 3, 9), decimal.RequireFromString("1.10")))

	// exact date
	rate, err := reg.RateAt(eur, usd, day(2026, 3, 2))
	require.NoError(t, err)
	require.True(t, rate.Equal(decimal.RequireFromString("1.08")))

	// between samples the earlier one applies
	rate, err = reg.RateAt(eur, usd, day(2026, 3, 5))
	require.NoError(t, err)
	require.True(t, rate.Equal(decimal.RequireFromString("1.08")))

	// after the last sample the last one applies
	rate, err = reg.RateAt(eur, usd, day(2026, 4, 1))
	require.NoError(t, err)
	require.True(t, rate.Equal(decimal.RequireFromString("1.10")))

	// before the first sample there is nothing
	_, err = reg.RateAt(eur, usd, day(2026, 3, 1))
	require.ErrorIs(t, err, errs.ErrNoRateAvailable)

	// same-date sample replaces the old value
	require.NoError(t, reg.SetRate(eur, usd, day(2026, 3, 2), decimal.RequireFromString("1.09")))
	rate, err = reg.RateAt(eur, usd, day(2026, 3, 2))
	require.NoError(t, err)
	require.True(t, rate.Equal(decimal.RequireFromString("1.09")))
}

func TestRateAtReciprocal(t *testing.T) {
	reg := NewRegistry()
	usd, _ := reg.Register("USD", 2)
	eur, _ := reg.Register("EUR", 2)

	require.NoError(t, reg.SetRate(eur, usd, day(2026, 3, 2), decimal.RequireFromString("1.25")))

	rate, err := reg.RateAt(usd, eur, day(2026, 3, 2))
	require.NoError(t, err)
	require.True(t, rate.Equal(decimal.RequireFromString("0.8")))
}

func TestSetRateRejectsBadInput(t *testing.T) {
	reg := NewRegistry()
	usd, _ := reg.Register("USD", 2)
	eur, _ := reg.Register("EUR", 2)

	require.ErrorIs(t, reg.SetRate(usd, usd, day(2026, 3, 2), decimal.NewFromInt(1)), errs.ErrInvalid)
	require.ErrorIs(t, reg.SetRate(eur, usd, day(2026, 3, 2), decimal.Zero), errs.ErrInvalid)
	require.ErrorIs(t, reg.SetRate(eur, usd, day(2026, 3, 2), decimal.NewFromInt(-1)), errs.ErrInvalid)
}

func TestConvertRounding(t *testing.T) {
	reg := NewRegistry()
	usd, _ := reg.Register("USD", 2)
	eur, _ := reg.Register("EUR", 2)
	jpy, _ := reg.Register("JPY", 0)

	require.NoError(t, reg.SetRate(eur, usd, day(2026, 3, 2), decimal.RequireFromString("1.005")))

	// 1.00 EUR * 1.005 = 1.005 USD, ties round away from zero -> 1.01
	got, err := reg.Convert(100, eur, usd, day(2026, 3, 2))
	require.NoError(t, err)
	require.Equal(t, int64(101), got)

	// -1.00 EUR -> -1.01 USD, away from zero on the negative side too
	got, err = reg.Convert(-100, eur, usd, day(2026, 3, 2))
	require.NoError(t, err)
	require.Equal(t, int64(-101), got)

	// exponent change: 10.00 USD at 150.5 JPY/USD -> 1505 yen
	require.NoError(t, reg.SetRate(usd, jpy, day(2026, 3, 2), decimal.RequireFromString("150.5")))
	got, err = reg.Convert(1000, usd, jpy, day(2026, 3, 2))
	require.NoError(t, err)
	require.Equal(t, int64(1505), got)

	// identity conversion never needs a rate
	got, err = reg.Convert(4242, usd, usd, day(2026, 1, 1))
	require.NoError(t, err)
	require.Equal(t, int64(4242), got)
}

func TestRatesExport(t *testing.T) {
	reg := NewRegistry()
	usd, _ := reg.Register("USD", 2)
	eur, _ := reg.Register("EUR", 2)

	require.NoError(t, reg.SetRate(eur, usd, day(2026, 3, 9), decimal.RequireFromString("1.10")))
	require.NoError(t, reg.SetRate(eur, usd, day(2026, 3, 2), decimal.RequireFromString("1.08")))

	rates := reg.Rates()
	require.Len(t, rates, 2)
	require.Equal(t, "EUR", rates[0].From)
	require.Equal(t, "USD", rates[0].To)
	require.True(t, rates[0].Date.Before(rates[1].Date))
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("X", -5*3600)
	in := time.Date(2026, 3, 2, 23, 30, 0, 0, loc)
	got := DateOnly(in)
	require.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), got)
}
