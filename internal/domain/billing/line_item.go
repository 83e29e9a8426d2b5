package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// LineItem is one itemized charge line on a Bill
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// NewLineItem creates a line item with the total derived from quantity and
// unit price, rounded to the standard money scale.
func NewLineItem(description string, quantity, unitPrice decimal.Decimal) (LineItem, error) {
	if description == "" {
		return LineItem{}, NewValidationError("line item description cannot be empty")
	}
	if quantity.IsNegative() {
		return LineItem{}, NewValidationError("line item quantity cannot be negative")
	}
	return LineItem{
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineTotal:   unitPrice.Mul(quantity).Round(valueobject.MoneyScale),
	}, nil
}

// Validate checks the line item internal consistency
func (li *LineItem) Validate() error {
	if li.Description == "" {
		return NewValidationError("line item description cannot be empty")
	}
	if li.Quantity.IsNegative() {
		return NewValidationError("line item quantity cannot be negative")
	}
	expected := li.UnitPrice.Mul(li.Quantity).Round(valueobject.MoneyScale)
	if !li.LineTotal.Equal(expected) {
		return NewValidationError("line item total does not match quantity * unit price")
	}
	return nil
}

// GetLineTotalMoney returns the line total as Money
func (li *LineItem) GetLineTotalMoney() valueobject.Money {
	return valueobject.NewMoneyVND(li.LineTotal)
}

// LineItems is the ordered sequence of charge lines on a Bill, stored as JSONB
type LineItems []LineItem

// Value implements driver.Valuer for GORM to store as JSONB
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (l *LineItems) Scan(value interface{}) error {
	if value == nil {
		*l = LineItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}

	if len(bytes) == 0 {
		*l = LineItems{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Total returns the exact sum of all line totals
func (l LineItems) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range l {
		total = total.Add(l[i].LineTotal)
	}
	return total
}

// Validate checks every line item
func (l LineItems) Validate() error {
	for i := range l {
		if err := l[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
