package amount

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/davmoss/moneybook/internal/currency"
	"github.com/davmoss/moneybook/internal/errs"
)

func testRegistry(t *testing.T) (*currency.Registry, *currency.Currency, *currency.Currency) {
	t.Helper()
	reg := currency.NewRegistry()
	usd, err := reg.Register("USD", 2)
	require.NoError(t, err)
	eur, err := reg.Register("EUR", 2)
	require.NoError(t, err)
	return reg, usd, eur
}

func TestAddSubNeg(t *testing.T) {
	_, usd, eur := testRegistry(t)

	a := New(usd, 1500)
	b := New(usd, 700)

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, int64(2200), sum.MinorUnits())

	diff, err := sum.Sub(b)
	require.NoError(t, err)
	require.True(t, diff.Equal(a))

	inv, err := a.Add(a.Neg())
	require.NoError(t, err)
	require.True(t, inv.IsZero())

	_, err = a.Add(New(eur, 100))
	require.ErrorIs(t, err, errs.ErrCurrencyMismatch)
	_, err = a.Sub(New(eur, 100))
	require.ErrorIs(t, err, errs.ErrCurrencyMismatch)
	_, err = a.Cmp(New(eur, 100))
	require.ErrorIs(t, err, errs.ErrCurrencyMismatch)
}

func TestCmp(t *testing.T) {
	_, usd, _ := testRegistry(t)

	got, err := New(usd, 1).Cmp(New(usd, 2))
	require.NoError(t, err)
	require.Equal(t, -1, got)

	got, err = New(usd, 2).Cmp(New(usd, 1))
	require.NoError(t, err)
	require.Equal(t, 1, got)

	got, err = New(usd, 2).Cmp(New(usd, 2))
	require.NoError(t, err)
	require.Equal(t, 0, got)
}

func TestParseExactness(t *testing.T) {
	reg := currency.NewRegistry()
	usd, err := reg.Register("USD", 2)
	require.NoError(t, err)
	jpy, err := reg.Register("JPY", 0)
	require.NoError(t, err)

	a, err := Parse(usd, "123.45")
	require.NoError(t, err)
	require.Equal(t, int64(12345), a.MinorUnits())

	a, err = Parse(usd, "-0.05")
	require.NoError(t, err)
	require.Equal(t, int64(-5), a.MinorUnits())

	// excess precision is rejected, not rounded
	_, err = Parse(usd, "1.005")
	require.ErrorIs(t, err, errs.ErrInvalid)
	_, err = Parse(jpy, "10.5")
	require.ErrorIs(t, err, errs.ErrInvalid)

	_, err = Parse(usd, "abc")
	require.ErrorIs(t, err, errs.ErrInvalid)
}

func TestStringRoundTrip(t *testing.T) {
	reg := currency.NewRegistry()
	usd, err := reg.Register("USD", 2)
	require.NoError(t, err)
	jpy, err := reg.Register("JPY", 0)
	require.NoError(t, err)

	cases := []struct {
		cur  *currency.Currency
		v    int64
		want string
	}{
		{usd, 12345, "123.45"},
		{usd, -5, "-0.05"},
		{usd, 0, "0.00"},
		{jpy, 1000, "1000"},
	}
	for _, tc := range cases {
		a := New(tc.cur, tc.v)
		require.Equal(t, tc.want, a.String())
		back, err := Parse(tc.cur, a.String())
		require.NoError(t, err)
		require.True(t, back.Equal(a))
	}
}

func TestConvertedTo(t *testing.T) {
	reg, usd, eur := testRegistry(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, reg.SetRate(eur, usd, day, decimal.RequireFromString("1.0870")))

	a := New(eur, 10000) // 100.00 EUR
	got, err := a.ConvertedTo(reg, usd, day)
	require.NoError(t, err)
	require.Equal(t, int64(10870), got.MinorUnits())
	require.Equal(t, "USD", got.Currency().Code())

	// identity conversion needs no rate
	same, err := a.ConvertedTo(reg, eur, day)
	require.NoError(t, err)
	require.True(t, same.Equal(a))

	// before the first sample there is no rate
	_, err = a.ConvertedTo(reg, usd, day.AddDate(0, 0, -1))
	require.ErrorIs(t, err, errs.ErrNoRateAvailable)
}
