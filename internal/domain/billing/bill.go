package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// BillType identifies which billing flow spawned a bill
type BillType string

const (
	BillTypeReceipt  BillType = "RECEIPT"  // deposit receipt at check-in
	BillTypeContract BillType = "CONTRACT" // first month rent + remaining deposit
	BillTypeMonthly  BillType = "MONTHLY"  // recurring monthly charges
)

// IsValid checks if the bill type is valid
func (t BillType) IsValid() bool {
	switch t {
	case BillTypeReceipt, BillTypeContract, BillTypeMonthly:
		return true
	}
	return false
}

// BillStatus represents the lifecycle state of a Bill
type BillStatus string

const (
	BillStatusDraft              BillStatus = "DRAFT"
	BillStatusUnpaid             BillStatus = "UNPAID"
	BillStatusPendingCashConfirm BillStatus = "PENDING_CASH_CONFIRM"
	BillStatusPartiallyPaid      BillStatus = "PARTIALLY_PAID"
	BillStatusPaid               BillStatus = "PAID"
	BillStatusVoid               BillStatus = "VOID"
)

// IsValid checks if the status is a valid BillStatus
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusDraft, BillStatusUnpaid, BillStatusPendingCashConfirm,
		BillStatusPartiallyPaid, BillStatusPaid, BillStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of BillStatus
func (s BillStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are possible
func (s BillStatus) IsTerminal() bool {
	return s == BillStatusPaid || s == BillStatusVoid
}

// CanAcceptPayment returns true if payments may be applied in this status
func (s BillStatus) CanAcceptPayment() bool {
	return s == BillStatusUnpaid || s == BillStatusPendingCashConfirm || s == BillStatusPartiallyPaid
}

// CanVoid returns true if the bill may be cancelled from this status.
// A bill holding any credited payment (PARTIALLY_PAID or PAID) can never be voided.
// An open cash claim dies with the bill: PENDING_CASH_CONFIRM is voidable.
func (s BillStatus) CanVoid() bool {
	return s == BillStatusDraft || s == BillStatusUnpaid || s == BillStatusPendingCashConfirm
}

// Bill is the aggregate root for a single payable invoice. All status
// transitions are validate-then-commit: a failed transition leaves the
// aggregate completely unmodified.
type Bill struct {
	shared.BaseAggregateRoot
	BillNumber    string          `gorm:"uniqueIndex;not null;size:64" json:"bill_number"`
	BillType      BillType        `gorm:"not null;size:16;index" json:"bill_type"`
	Status        BillStatus      `gorm:"not null;default:'DRAFT';size:32;index" json:"status"`
	ContractID    *uuid.UUID      `gorm:"type:uuid;index" json:"contract_id,omitempty"`
	RoomID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"room_id"`
	Period        string          `gorm:"size:7;index" json:"period,omitempty"` // YYYY-MM, MONTHLY bills only
	LineItems     LineItems       `gorm:"type:jsonb;default:'[]'" json:"line_items"`
	AmountDue     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount_due"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount_paid"`
	Payments      Payments        `gorm:"type:jsonb;default:'[]'" json:"payments"`
	BillingDate   time.Time       `gorm:"not null" json:"billing_date"`
	PendingCash   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"pending_cash"` // claimed amount while PENDING_CASH_CONFIRM
	RejectReason  string          `gorm:"type:text" json:"reject_reason,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	VoidedAt      *time.Time      `json:"voided_at,omitempty"`
	VoidReason    string          `gorm:"type:text" json:"void_reason,omitempty"`
	SettledByUser *uuid.UUID      `gorm:"type:uuid" json:"settled_by_user,omitempty"` // set when an admin marked the bill settled directly
}

// TableName returns the table name for GORM
func (Bill) TableName() string {
	return "bills"
}

// NewBill creates a new Bill in DRAFT status
func NewBill(billType BillType, roomID uuid.UUID, contractID *uuid.UUID, billNumber, period string, billingDate time.Time) (*Bill, error) {
	if !billType.IsValid() {
		return nil, NewValidationError("bill type is not valid")
	}
	if billNumber == "" {
		return nil, NewValidationError("bill number cannot be empty")
	}
	if roomID == uuid.Nil {
		return nil, NewValidationError("room ID cannot be empty")
	}
	if billType == BillTypeMonthly && period == "" {
		return nil, NewValidationError("monthly bills require a billing period")
	}
	if billType != BillTypeMonthly && period != "" {
		return nil, NewValidationError("only monthly bills carry a billing period")
	}

	return &Bill{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BillNumber:        billNumber,
		BillType:          billType,
		Status:            BillStatusDraft,
		ContractID:        contractID,
		RoomID:            roomID,
		Period:            period,
		LineItems:         LineItems{},
		AmountDue:         decimal.Zero,
		AmountPaid:        decimal.Zero,
		Payments:          Payments{},
		BillingDate:       billingDate,
		PendingCash:       decimal.Zero,
	}, nil
}

// Publish finalizes the line items and moves the bill DRAFT -> UNPAID.
// Line items and the due amount are set atomically with the transition.
func (b *Bill) Publish(items LineItems) error {
	if b.Status != BillStatusDraft {
		return NewInvalidStateTransitionError("publish bill", b.Status, BillStatusUnpaid)
	}
	if len(items) == 0 {
		return NewValidationError("cannot publish a bill without line items")
	}
	if err := items.Validate(); err != nil {
		return err
	}
	total := items.Total()
	if !total.IsPositive() {
		return NewValidationError("published bill must have a positive amount due")
	}

	b.LineItems = items
	b.AmountDue = total
	b.Status = BillStatusUnpaid
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBillPublishedEvent(b))
	return nil
}

// Outstanding returns the remaining unpaid amount
func (b *Bill) Outstanding() decimal.Decimal {
	return b.AmountDue.Sub(b.AmountPaid)
}

// RequestCashPayment records a tenant's claim of paying `amount` in cash and
// moves the bill UNPAID -> PENDING_CASH_CONFIRM. The claim is bounded by the
// outstanding balance plus the configured rounding epsilon.
func (b *Bill) RequestCashPayment(amount, epsilon valueobject.Money) error {
	if b.Status != BillStatusUnpaid {
		return NewInvalidStateTransitionError("request cash payment", b.Status, BillStatusPendingCashConfirm)
	}
	if !amount.IsPositive() {
		return NewAmountOutOfRangeError("cash payment amount must be positive")
	}
	limit := b.Outstanding().Add(epsilon.Amount())
	if amount.Amount().GreaterThan(limit) {
		return NewAmountOutOfRangeError(fmt.Sprintf(
			"cash payment amount %s exceeds outstanding balance %s",
			amount.StringFixed(), b.Outstanding().StringFixed(2)))
	}

	b.PendingCash = amount.Amount()
	b.Status = BillStatusPendingCashConfirm
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewCashPaymentRequestedEvent(b, amount))
	return nil
}

// RejectCashPayment declines an open cash claim and moves the bill back to
// UNPAID. A non-empty rejection reason is mandatory and recorded.
func (b *Bill) RejectCashPayment(reason string) error {
	if b.Status != BillStatusPendingCashConfirm {
		return NewInvalidStateTransitionError("reject cash payment", b.Status, BillStatusUnpaid)
	}
	if reason == "" {
		return NewValidationError("rejection reason is required")
	}

	b.PendingCash = decimal.Zero
	b.RejectReason = reason
	b.Status = BillStatusUnpaid
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewCashPaymentRejectedEvent(b, reason))
	return nil
}

// ConfirmCashPayment accepts an open cash claim, appends a CASH ledger entry
// and recomputes the status. When amount is nil the claimed amount is used.
// The credited amount is bounded by the outstanding balance plus epsilon, so
// an admin override can never overpay the bill.
func (b *Bill) ConfirmCashPayment(amount *valueobject.Money, epsilon valueobject.Money, note string) error {
	if b.Status != BillStatusPendingCashConfirm {
		return NewInvalidStateTransitionError("confirm cash payment", b.Status, BillStatusPaid)
	}
	credited := b.PendingCash
	if amount != nil {
		credited = amount.Amount()
	}
	if !credited.IsPositive() {
		return NewAmountOutOfRangeError("confirmed cash amount must be positive")
	}
	limit := b.Outstanding().Add(epsilon.Amount())
	if credited.GreaterThan(limit) {
		return NewAmountOutOfRangeError(fmt.Sprintf(
			"confirmed cash amount %s exceeds outstanding balance %s",
			credited.StringFixed(2), b.Outstanding().StringFixed(2)))
	}

	payment := NewPayment(valueobject.NewMoneyVND(credited), PaymentMethodCash, "", "", note)
	b.applyCredit(payment)

	b.AddDomainEvent(NewPaymentConfirmedEvent(b, &payment))
	if b.Status == BillStatusPaid {
		b.AddDomainEvent(NewBillPaidEvent(b))
	}
	return nil
}

// ApplyGatewayPayment applies a verified gateway success event to the ledger.
// It is idempotent by (provider, transactionID): a repeated callback is a
// no-op that leaves the bill unchanged.
func (b *Bill) ApplyGatewayPayment(provider, transactionID string, amount valueobject.Money, epsilon valueobject.Money) error {
	if transactionID == "" {
		return NewValidationError("gateway transaction id cannot be empty")
	}
	if existing := b.Payments.FindByTransaction(provider, transactionID); existing != nil && existing.IsCredited() {
		return nil
	}
	if !b.Status.CanAcceptPayment() {
		return NewInvalidStateTransitionError("apply gateway payment", b.Status, BillStatusPaid)
	}
	if !amount.IsPositive() {
		return NewAmountOutOfRangeError("gateway payment amount must be positive")
	}
	limit := b.Outstanding().Add(epsilon.Amount())
	if amount.Amount().GreaterThan(limit) {
		return NewAmountOutOfRangeError(fmt.Sprintf(
			"gateway payment amount %s exceeds outstanding balance %s",
			amount.StringFixed(), b.Outstanding().StringFixed(2)))
	}

	payment := NewPayment(amount, PaymentMethodGateway, provider, transactionID, "")
	b.applyCredit(payment)

	b.AddDomainEvent(NewPaymentConfirmedEvent(b, &payment))
	if b.Status == BillStatusPaid {
		b.AddDomainEvent(NewBillPaidEvent(b))
	}
	return nil
}

// RecordFailedGatewayPayment appends an audit-only FAILED ledger entry.
// It never alters the due amount, the paid amount or the status.
func (b *Bill) RecordFailedGatewayPayment(provider, transactionID string, amount valueobject.Money, note string) error {
	if transactionID == "" {
		return NewValidationError("gateway transaction id cannot be empty")
	}
	if existing := b.Payments.FindByTransaction(provider, transactionID); existing != nil {
		return nil
	}

	b.Payments = append(b.Payments, NewFailedPayment(amount, provider, transactionID, note))
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return nil
}

// Void cancels the bill. Only reachable from DRAFT, UNPAID or
// PENDING_CASH_CONFIRM; a bill with credited money can never be voided.
func (b *Bill) Void(reason string) error {
	if !b.Status.CanVoid() {
		return NewInvalidStateTransitionError("void bill", b.Status, BillStatusVoid)
	}
	if reason == "" {
		return NewValidationError("void reason is required")
	}

	now := time.Now()
	b.Status = BillStatusVoid
	b.VoidedAt = &now
	b.VoidReason = reason
	b.PendingCash = decimal.Zero
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewBillVoidedEvent(b, reason))
	return nil
}

// MarkSettled handles the deposit-transfer rule: an admin marks the bill PAID
// directly because the money was logically already received elsewhere. A
// synthetic ledger entry equal to the current due amount is appended, that
// amount is moved from due to paid, and the due amount is zeroed.
func (b *Bill) MarkSettled(adminID uuid.UUID, note string) error {
	if b.Status == BillStatusPaid || b.Status == BillStatusVoid {
		return NewInvalidStateTransitionError("settle bill", b.Status, BillStatusPaid)
	}
	if !b.AmountDue.IsPositive() {
		return NewValidationError("cannot settle a bill without a positive amount due")
	}

	transferred := b.AmountDue
	if note == "" {
		note = "settled by operator; amount transferred from prior receipt"
	}
	payment := NewPayment(valueobject.NewMoneyVND(transferred), PaymentMethodOther, "", "", note)

	now := time.Now()
	b.Payments = append(b.Payments, payment)
	b.AmountPaid = b.AmountPaid.Add(transferred)
	b.AmountDue = decimal.Zero
	b.PendingCash = decimal.Zero
	b.Status = BillStatusPaid
	b.PaidAt = &now
	b.SettledByUser = &adminID
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewPaymentConfirmedEvent(b, &payment))
	b.AddDomainEvent(NewBillSettledEvent(b, adminID, valueobject.NewMoneyVND(transferred)))
	b.AddDomainEvent(NewBillPaidEvent(b))
	return nil
}

// applyCredit appends a credited ledger entry and recomputes the paid amount
// and status. Callers have already validated the transition.
func (b *Bill) applyCredit(payment Payment) {
	now := time.Now()
	b.Payments = append(b.Payments, payment)
	b.AmountPaid = b.AmountPaid.Add(payment.Amount)
	b.PendingCash = decimal.Zero

	if b.AmountPaid.GreaterThanOrEqual(b.AmountDue) {
		b.Status = BillStatusPaid
		b.PaidAt = &now
	} else {
		b.Status = BillStatusPartiallyPaid
	}
	b.UpdatedAt = now
	b.IncrementVersion()
}

// Helper accessors

// GetAmountDueMoney returns the due amount as Money
func (b *Bill) GetAmountDueMoney() valueobject.Money {
	return valueobject.NewMoneyVND(b.AmountDue)
}

// GetAmountPaidMoney returns the paid amount as Money
func (b *Bill) GetAmountPaidMoney() valueobject.Money {
	return valueobject.NewMoneyVND(b.AmountPaid)
}

// IsPaid returns true if the bill is fully paid
func (b *Bill) IsPaid() bool {
	return b.Status == BillStatusPaid
}

// IsDraft returns true if the bill has not been published yet
func (b *Bill) IsDraft() bool {
	return b.Status == BillStatusDraft
}

// IsVoid returns true if the bill was cancelled
func (b *Bill) IsVoid() bool {
	return b.Status == BillStatusVoid
}
