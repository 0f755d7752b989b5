package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency every document in the system is
// denominated in. XOF (franc CFA) has no minor unit, so amounts are
// rounded to whole francs before presentation or persistence.
const DefaultCurrency = "XOF"

// Money represents a monetary amount with currency
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney creates a new Money value object
func NewMoney(amount decimal.Decimal, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{
		Amount:   amount,
		Currency: currency,
	}
}

// NewMoneyFromFloat creates Money from a float64 value
func NewMoneyFromFloat(amount float64, currency string) Money {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// NewMoneyFromInt creates Money from an integer value
func NewMoneyFromInt(amount int64, currency string) Money {
	return NewMoney(decimal.NewFromInt(amount), currency)
}

// Zero returns a zero Money in the default currency
func Zero() Money {
	return NewMoney(decimal.Zero, DefaultCurrency)
}

// ZeroIn returns a zero Money in the given currency
func ZeroIn(currency string) Money {
	return NewMoney(decimal.Zero, currency)
}

// Add adds two Money values; currencies must match
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("cannot add %s to %s", other.Currency, m.Currency)
	}
	return NewMoney(m.Amount.Add(other.Amount), m.Currency), nil
}

// Sub subtracts other from m; currencies must match
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("cannot subtract %s from %s", other.Currency, m.Currency)
	}
	return NewMoney(m.Amount.Sub(other.Amount), m.Currency), nil
}

// Mul multiplies the amount by a decimal factor
func (m Money) Mul(factor decimal.Decimal) Money {
	return NewMoney(m.Amount.Mul(factor), m.Currency)
}

// MulInt multiplies the amount by an integer factor
func (m Money) MulInt(factor int64) Money {
	return m.Mul(decimal.NewFromInt(factor))
}

// RoundToUnit rounds the amount to whole currency units, half up.
// XOF carries no decimals so every derived amount passes through here
// exactly once, after all arithmetic on the unrounded value.
func (m Money) RoundToUnit() Money {
	return NewMoney(m.Amount.Round(0), m.Currency)
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// IsNegative reports whether the amount is negative
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// IsPositive reports whether the amount is strictly positive
func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// Cmp compares two amounts, ignoring currency
func (m Money) Cmp(other Money) int {
	return m.Amount.Cmp(other.Amount)
}

// Equals reports whether two Money values are equal in amount and currency
func (m Money) Equals(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// String returns a human readable representation
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(0), m.Currency)
}

// Value implements driver.Valuer; only the amount is stored, the
// currency column is kept separately on the owning row.
func (m Money) Value() (driver.Value, error) {
	return m.Amount.String(), nil
}

// Scan implements sql.Scanner
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		m.Amount = decimal.Zero
		m.Currency = DefaultCurrency
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("scan money amount: %w", err)
	}
	m.Amount = d
	if m.Currency == "" {
		m.Currency = DefaultCurrency
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}{
		Amount:   m.Amount.String(),
		Currency: m.Currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(raw.Amount)
	if err != nil {
		return fmt.Errorf("invalid money amount %q: %w", raw.Amount, err)
	}
	m.Amount = amount
	m.Currency = raw.Currency
	if m.Currency == "" {
		m.Currency = DefaultCurrency
	}
	return nil
}
