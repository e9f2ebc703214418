package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMajorRoundsToCents(t *testing.T) {
	m, err := FromMajor(95.5)
	require.NoError(t, err)
	assert.Equal(t, int64(9550), m.Amount)
	assert.Equal(t, USD, m.Currency)

	m, err = FromMajor(100)
	require.NoError(t, err)
	assert.Equal(t, 100.0, m.Major())

	_, err = FromMajor(-1)
	assert.ErrorIs(t, err, ErrNegativeAmount)
	_, err = FromMajor(math.NaN())
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestArithmetic(t *testing.T) {
	nightly := Cents(18000)
	assert.Equal(t, int64(54000), nightly.Multiply(3).Amount)

	sum, err := nightly.Add(Cents(500))
	require.NoError(t, err)
	assert.Equal(t, int64(18500), sum.Amount)

	eur, err := New(100, "eur")
	require.NoError(t, err)
	assert.Equal(t, "EUR", eur.Currency)
	_, err = nightly.Add(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = New(1, "US")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}
