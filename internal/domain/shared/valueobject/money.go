package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code.
type Currency string

// VND is the Vietnamese dong, the only currency in active use.
const VND Currency = "VND"

// DefaultCurrency applies wherever a currency is not stated explicitly.
const DefaultCurrency = VND

// MoneyScale is the number of decimal places amounts are rendered and
// stored with.
const MoneyScale int32 = 2

// Money is an immutable exact-decimal amount. Every operation returns a new
// value. Amounts may be negative: a deposit refund is a signed result.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoneyVND wraps a decimal amount as VND.
func NewMoneyVND(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: VND}
}

// NewMoneyVNDFromInt builds a VND amount from whole dong.
func NewMoneyVNDFromInt(amount int64) Money {
	return NewMoneyVND(decimal.NewFromInt(amount))
}

// NewMoneyVNDFromFloat builds a VND amount from a float. Prefer the string
// or int constructors where the source value is exact.
func NewMoneyVNDFromFloat(amount float64) Money {
	return NewMoneyVND(decimal.NewFromFloat(amount))
}

// NewMoneyVNDFromString parses a decimal string as VND.
func NewMoneyVNDFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoneyVND(d), nil
}

// ZeroVND is zero dong.
func ZeroVND() Money {
	return NewMoneyVND(decimal.Zero)
}

// Amount returns the underlying decimal.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() Currency { return m.currency }

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// derive keeps the currency while swapping the amount.
func (m Money) derive(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: m.currency}
}

func (m Money) sameCurrency(other Money, op string) error {
	if m.currency != other.currency {
		return fmt.Errorf("cannot %s money with different currencies: %s and %s", op, m.currency, other.currency)
	}
	return nil
}

// Add returns m + other; the currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other, "add"); err != nil {
		return Money{}, err
	}
	return m.derive(m.amount.Add(other.amount)), nil
}

// Subtract returns m - other; the currencies must match.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other, "subtract"); err != nil {
		return Money{}, err
	}
	return m.derive(m.amount.Sub(other.amount)), nil
}

// MustAdd is Add for chained arithmetic where both operands are known to be
// VND. Panics on a currency mismatch.
func (m Money) MustAdd(other Money) Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// MustSubtract is Subtract for chained arithmetic where both operands are
// known to be VND. Panics on a currency mismatch.
func (m Money) MustSubtract(other Money) Money {
	result, err := m.Subtract(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Multiply scales the amount by factor.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return m.derive(m.amount.Mul(factor))
}

// MultiplyByInt scales the amount by an integer factor.
func (m Money) MultiplyByInt(factor int64) Money {
	return m.Multiply(decimal.NewFromInt(factor))
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	return m.derive(m.amount.Abs())
}

// CalculatePercentage returns percent% of the amount.
func (m Money) CalculatePercentage(percent decimal.Decimal) Money {
	return m.derive(m.amount.Mul(percent).Div(decimal.NewFromInt(100)))
}

// Equals reports whether amount and currency both match.
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// LessThan reports m < other; the currencies must match.
func (m Money) LessThan(other Money) (bool, error) {
	if err := m.sameCurrency(other, "compare"); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

// LessThanOrEqual reports m <= other; the currencies must match.
func (m Money) LessThanOrEqual(other Money) (bool, error) {
	if err := m.sameCurrency(other, "compare"); err != nil {
		return false, err
	}
	return m.amount.LessThanOrEqual(other.amount), nil
}

// GreaterThan reports m > other; the currencies must match.
func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency(other, "compare"); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

// GreaterThanOrEqual reports m >= other; the currencies must match.
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if err := m.sameCurrency(other, "compare"); err != nil {
		return false, err
	}
	return m.amount.GreaterThanOrEqual(other.amount), nil
}

// String renders the amount at money scale with the currency code.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(MoneyScale), m.currency)
}

// StringFixed renders just the amount at money scale.
func (m Money) StringFixed() string {
	return m.amount.StringFixed(MoneyScale)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON renders the amount as a string so precision survives transit.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.String(), Currency: m.currency})
}

// UnmarshalJSON parses the string-amount form; a missing currency defaults.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	m.amount = amount
	m.currency = v.Currency
	if m.currency == "" {
		m.currency = DefaultCurrency
	}
	return nil
}

// Value stores the bare amount; the column is a DECIMAL, currency is implied.
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan reads the bare amount back; currency defaults to DefaultCurrency.
func (m *Money) Scan(value any) error {
	if value == nil {
		*m = ZeroVND()
		return nil
	}

	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %w", err)
	}
	m.amount = amount
	if m.currency == "" {
		m.currency = DefaultCurrency
	}
	return nil
}
