package money

import (
	"errors"
	"math"
	"strings"
)

// USD is the only currency the catalog prices in.
const USD = "USD"

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrNegativeAmount   = errors.New("money: amount must not be negative")
)

// Money keeps amounts in integer cents to avoid floating point drift when a
// nightly rate is multiplied by the number of nights.
type Money struct {
	Amount   int64
	Currency string
}

func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}, nil
}

// Cents builds a USD amount from minor units.
func Cents(amount int64) Money {
	return Money{Amount: amount, Currency: USD}
}

// FromMajor converts a decimal dollar amount as it arrives on the wire.
func FromMajor(amount float64) (Money, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, ErrNegativeAmount
	}
	return Money{Amount: int64(math.Round(amount * 100)), Currency: USD}, nil
}

// Major returns the amount in whole currency units for presentation.
func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) IsNegative() bool {
	return m.Amount < 0
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
