package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(19.99), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(19.99)))
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(1), "")
		assert.Error(t, err)
	})
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoneyUSDFromFloat(10.50)
	b := NewMoneyUSDFromFloat(4.25)

	t.Run("add", func(t *testing.T) {
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, "14.75 USD", sum.String())
	})

	t.Run("sub", func(t *testing.T) {
		diff, err := a.Sub(b)
		require.NoError(t, err)
		assert.Equal(t, "6.25 USD", diff.String())
	})

	t.Run("currency mismatch", func(t *testing.T) {
		other := Zero(EUR)
		_, err := a.Add(other)
		assert.Error(t, err)
		_, err = a.Sub(other)
		assert.Error(t, err)
	})

	t.Run("mul rounds only on demand", func(t *testing.T) {
		fee := a.Mul(decimal.NewFromFloat(0.029))
		assert.Equal(t, "0.30 USD", fee.Round().String())
	})
}

func TestMoneyCents(t *testing.T) {
	cases := []struct {
		amount string
		cents  int64
	}{
		{"10.00", 1000},
		{"9.99", 999},
		{"0.005", 1}, // half-up at the cent boundary
		{"25.4999", 2550},
	}
	for _, tc := range cases {
		m, err := NewMoneyUSDFromString(tc.amount)
		require.NoError(t, err)
		assert.Equal(t, tc.cents, m.Cents(), "amount %s", tc.amount)
	}
}

func TestMoneyComparison(t *testing.T) {
	a := NewMoneyUSDFromFloat(25)
	b := NewMoneyUSDFromFloat(10)

	cmp, err := a.Cmp(b)
	require.NoError(t, err)
	assert.Equal(t, 1, cmp)

	assert.True(t, ZeroUSD().IsZero())
	assert.True(t, b.IsPositive())
	neg, err := ZeroUSD().Sub(b)
	require.NoError(t, err)
	assert.True(t, neg.IsNegative())
}
