package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// PaymentMethod represents how a payment entered the system
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "CASH"
	PaymentMethodBank    PaymentMethod = "BANK"
	PaymentMethodGateway PaymentMethod = "GATEWAY"
	PaymentMethodOther   PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBank, PaymentMethodGateway, PaymentMethodOther:
		return true
	}
	return false
}

// PaymentResult marks a ledger entry as credited or audit-only
type PaymentResult string

const (
	PaymentResultSuccess PaymentResult = "SUCCESS"
	PaymentResultFailed  PaymentResult = "FAILED"
)

// Payment is an append-only ledger entry within the Bill aggregate,
// stored as JSONB. Entries are never mutated after append.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	PaidAt        time.Time       `json:"paid_at"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	Provider      string          `json:"provider,omitempty"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Result        PaymentResult   `json:"result"`
	Note          string          `json:"note,omitempty"`
}

// NewPayment creates a new successful payment ledger entry
func NewPayment(amount valueobject.Money, method PaymentMethod, provider, transactionID, note string) Payment {
	return Payment{
		ID:            uuid.New(),
		PaidAt:        time.Now(),
		Amount:        amount.Amount(),
		Method:        method,
		Provider:      provider,
		TransactionID: transactionID,
		Result:        PaymentResultSuccess,
		Note:          note,
	}
}

// NewFailedPayment creates an audit-only ledger entry for a failed gateway result
func NewFailedPayment(amount valueobject.Money, provider, transactionID, note string) Payment {
	p := NewPayment(amount, PaymentMethodGateway, provider, transactionID, note)
	p.Result = PaymentResultFailed
	return p
}

// GetAmountMoney returns the amount as a Money value object
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyVND(p.Amount)
}

// IsCredited returns true if the entry contributed to the paid amount
func (p *Payment) IsCredited() bool {
	return p.Result == PaymentResultSuccess
}

// Payments is the ordered payment ledger of a Bill, stored as JSONB
type Payments []Payment

// Value implements driver.Valuer for GORM to store as JSONB
func (p Payments) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (p *Payments) Scan(value interface{}) error {
	if value == nil {
		*p = Payments{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Payments: unsupported type")
	}

	if len(bytes) == 0 {
		*p = Payments{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// FindByTransaction returns the ledger entry with the given provider and
// transaction id, or nil when no such entry exists. Used for gateway
// callback idempotency.
func (p Payments) FindByTransaction(provider, transactionID string) *Payment {
	if transactionID == "" {
		return nil
	}
	for i := range p {
		if p[i].Provider == provider && p[i].TransactionID == transactionID {
			return &p[i]
		}
	}
	return nil
}

// CreditedTotal returns the exact sum of all credited entries
func (p Payments) CreditedTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range p {
		if p[i].IsCredited() {
			total = total.Add(p[i].Amount)
		}
	}
	return total
}
