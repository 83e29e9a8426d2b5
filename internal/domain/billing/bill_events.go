package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// BillPublishedEvent is raised when a draft bill is published
type BillPublishedEvent struct {
	shared.BaseDomainEvent
	BillID     uuid.UUID       `json:"bill_id"`
	BillNumber string          `json:"bill_number"`
	BillType   BillType        `json:"bill_type"`
	ContractID *uuid.UUID      `json:"contract_id,omitempty"`
	AmountDue  decimal.Decimal `json:"amount_due"`
}

// EventType returns the event type name
func (e *BillPublishedEvent) EventType() string {
	return "BillPublished"
}

// NewBillPublishedEvent creates a new BillPublishedEvent
func NewBillPublishedEvent(b *Bill) *BillPublishedEvent {
	return &BillPublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillPublished", "Bill", b.ID),
		BillID:          b.ID,
		BillNumber:      b.BillNumber,
		BillType:        b.BillType,
		ContractID:      b.ContractID,
		AmountDue:       b.AmountDue,
	}
}

// CashPaymentRequestedEvent is raised when a tenant claims a cash payment
type CashPaymentRequestedEvent struct {
	shared.BaseDomainEvent
	BillID        uuid.UUID       `json:"bill_id"`
	BillNumber    string          `json:"bill_number"`
	ClaimedAmount decimal.Decimal `json:"claimed_amount"`
}

// EventType returns the event type name
func (e *CashPaymentRequestedEvent) EventType() string {
	return "CashPaymentRequested"
}

// NewCashPaymentRequestedEvent creates a new CashPaymentRequestedEvent
func NewCashPaymentRequestedEvent(b *Bill, amount valueobject.Money) *CashPaymentRequestedEvent {
	return &CashPaymentRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CashPaymentRequested", "Bill", b.ID),
		BillID:          b.ID,
		BillNumber:      b.BillNumber,
		ClaimedAmount:   amount.Amount(),
	}
}

// CashPaymentRejectedEvent is raised when an operator declines a cash claim
type CashPaymentRejectedEvent struct {
	shared.BaseDomainEvent
	BillID     uuid.UUID `json:"bill_id"`
	BillNumber string    `json:"bill_number"`
	Reason     string    `json:"reason"`
}

// EventType returns the event type name
func (e *CashPaymentRejectedEvent) EventType() string {
	return "CashPaymentRejected"
}

// NewCashPaymentRejectedEvent creates a new CashPaymentRejectedEvent
func NewCashPaymentRejectedEvent(b *Bill, reason string) *CashPaymentRejectedEvent {
	return &CashPaymentRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CashPaymentRejected", "Bill", b.ID),
		BillID:          b.ID,
		BillNumber:      b.BillNumber,
		Reason:          reason,
	}
}

// PaymentConfirmedEvent is raised whenever money is credited to a bill.
// Downstream effects (checkin completion, room projection refresh, tenant
// account provisioning, receipt mail) subscribe to this event so each effect
// is independently testable and failure-isolated from the payment itself.
type PaymentConfirmedEvent struct {
	shared.BaseDomainEvent
	BillID        uuid.UUID       `json:"bill_id"`
	BillNumber    string          `json:"bill_number"`
	BillType      BillType        `json:"bill_type"`
	ContractID    *uuid.UUID      `json:"contract_id,omitempty"`
	RoomID        uuid.UUID       `json:"room_id"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Method        PaymentMethod   `json:"method"`
	Provider      string          `json:"provider,omitempty"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	NewStatus     BillStatus      `json:"new_status"`
}

// EventType returns the event type name
func (e *PaymentConfirmedEvent) EventType() string {
	return "PaymentConfirmed"
}

// NewPaymentConfirmedEvent creates a new PaymentConfirmedEvent
func NewPaymentConfirmedEvent(b *Bill, p *Payment) *PaymentConfirmedEvent {
	return &PaymentConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentConfirmed", "Bill", b.ID),
		BillID:          b.ID,
		BillNumber:      b.BillNumber,
		BillType:        b.BillType,
		ContractID:      b.ContractID,
		RoomID:          b.RoomID,
		PaymentID:       p.ID,
		Method:          p.Method,
		Provider:        p.Provider,
		TransactionID:   p.TransactionID,
		Amount:          p.Amount,
		NewStatus:       b.Status,
	}
}

// BillPaidEvent is raised when a bill becomes fully paid
type BillPaidEvent struct {
	shared.BaseDomainEvent
	BillID     uuid.UUID       `json:"bill_id"`
	BillNumber string          `json:"bill_number"`
	BillType   BillType        `json:"bill_type"`
	ContractID *uuid.UUID      `json:"contract_id,omitempty"`
	RoomID     uuid.UUID       `json:"room_id"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	PaidAt     time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *BillPaidEvent) EventType() string {
	return "BillPaid"
}

// NewBillPaidEvent creates a new BillPaidEvent
func NewBillPaidEvent(b *Bill) *BillPaidEvent {
	paidAt := time.Now()
	if b.PaidAt != nil {
		paidAt = *b.PaidAt
	}
	return &BillPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillPaid", "Bill", b.ID),
		BillID:          b.ID,
		BillNumber:      b.BillNumber,
		BillType:        b.BillType,
		ContractID:      b.ContractID,
		RoomID:          b.RoomID,
		AmountPaid:      b.AmountPaid,
		PaidAt:          paidAt,
	}
}

// BillVoidedEvent is raised when a bill is cancelled
type BillVoidedEvent struct {
	shared.BaseDomainEvent
	BillID     uuid.UUID `json:"bill_id"`
	BillNumber string    `json:"bill_number"`
	Reason     string    `json:"reason"`
}

// EventType returns the event type name
func (e *BillVoidedEvent) EventType() string {
	return "BillVoided"
}

// NewBillVoidedEvent creates a new BillVoidedEvent
func NewBillVoidedEvent(b *Bill, reason string) *BillVoidedEvent {
	return &BillVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillVoided", "Bill", b.ID),
		BillID:          b.ID,
		BillNumber:      b.BillNumber,
		Reason:          reason,
	}
}

// BillSettledEvent is raised when an operator marks a bill settled directly
type BillSettledEvent struct {
	shared.BaseDomainEvent
	BillID      uuid.UUID       `json:"bill_id"`
	BillNumber  string          `json:"bill_number"`
	AdminID     uuid.UUID       `json:"admin_id"`
	Transferred decimal.Decimal `json:"transferred"`
}

// EventType returns the event type name
func (e *BillSettledEvent) EventType() string {
	return "BillSettled"
}

// NewBillSettledEvent creates a new BillSettledEvent
func NewBillSettledEvent(b *Bill, adminID uuid.UUID, transferred valueobject.Money) *BillSettledEvent {
	return &BillSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BillSettled", "Bill", b.ID),
		BillID:          b.ID,
		BillNumber:      b.BillNumber,
		AdminID:         adminID,
		Transferred:     transferred.Amount(),
	}
}
