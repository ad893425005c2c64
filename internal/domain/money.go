package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a caller supplies an amount without a currency.
const DefaultCurrency = "CNY"

// Money is an immutable, non-negative amount in a single currency.
//
// The zero value (no currency, zero amount) is the additive identity: adding it
// to any Money returns the other operand unchanged. This lets sums start from
// Money{} without knowing the currency up front.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney validates amount and currency and returns a Money.
// Currency codes are upper-cased; an empty currency falls back to DefaultCurrency.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return Money{}, fmt.Errorf("%w: currency %q must be a 3-letter code", ErrValidation, currency)
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustMoney is NewMoney for literals known to be valid. It panics on error.
func MustMoney(amount string, currency string) Money {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(err)
	}
	m, err := NewMoney(d, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency string) Money {
	return Money{amount: decimal.Zero, currency: strings.ToUpper(currency)}
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the ISO currency code, or "" for the zero value.
func (m Money) Currency() string { return m.currency }

// IsZero reports whether m carries no amount.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsUnset reports whether m is the currency-less zero value.
func (m Money) IsUnset() bool { return m.currency == "" && m.amount.IsZero() }

// Add returns m + other. A zero amount in any currency is the identity.
// Mixing two non-zero amounts of different currencies is a programmer error
// reported as ErrCurrencyMismatch.
func (m Money) Add(other Money) (Money, error) {
	switch {
	case m.IsUnset() || (m.IsZero() && !other.IsUnset()):
		return other, nil
	case other.IsZero():
		return m, nil
	case m.currency != other.currency:
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// GreaterThan compares two amounts of the same currency.
func (m Money) GreaterThan(other Money) (bool, error) {
	if !m.IsZero() && !other.IsZero() && m.currency != other.currency {
		return false, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return m.amount.GreaterThan(other.amount), nil
}

// Equal reports whether both amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string {
	if m.IsUnset() {
		return "0"
	}
	return m.amount.StringFixed(2) + " " + m.currency
}
