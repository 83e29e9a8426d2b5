package leasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// CheckInStatus is the state of a check-in request
type CheckInStatus string

const (
	CheckInStatusPending     CheckInStatus = "PENDING"      // created, waiting for the deposit receipt
	CheckInStatusDepositPaid CheckInStatus = "DEPOSIT_PAID" // receipt bill paid, contract can proceed
	CheckInStatusCompleted   CheckInStatus = "COMPLETED"    // contract finalized, tenant moved in
	CheckInStatusCanceled    CheckInStatus = "CANCELED"
	CheckInStatusExpired     CheckInStatus = "EXPIRED" // deposit grace window ran out
)

// IsValid checks if the status is valid
func (s CheckInStatus) IsValid() bool {
	switch s {
	case CheckInStatusPending, CheckInStatusDepositPaid, CheckInStatusCompleted,
		CheckInStatusCanceled, CheckInStatusExpired:
		return true
	}
	return false
}

// String returns the status as string
func (s CheckInStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the check-in can no longer change
func (s CheckInStatus) IsTerminal() bool {
	return s == CheckInStatusCompleted || s == CheckInStatusCanceled || s == CheckInStatusExpired
}

// CheckIn is a tenant's request to move into a room. It holds the room
// (DEPOSITED) until the deposit is paid within the grace window.
type CheckIn struct {
	shared.BaseAggregateRoot
	RoomID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"room_id"`
	ContractID    *uuid.UUID      `gorm:"type:uuid;index" json:"contract_id,omitempty"`
	ReceiptBillID *uuid.UUID      `gorm:"type:uuid;index" json:"receipt_bill_id,omitempty"`
	Tenant        Tenant          `gorm:"embedded;embeddedPrefix:tenant_" json:"tenant"`
	Status        CheckInStatus   `gorm:"not null;default:'PENDING';index" json:"status"`
	DepositAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"deposit_amount"`
	MoveInDate    time.Time       `gorm:"not null" json:"move_in_date"`
	DepositDueAt  time.Time       `gorm:"not null;index" json:"deposit_due_at"`
	DepositPaidAt *time.Time      `json:"deposit_paid_at,omitempty"`
	WarningSentAt *time.Time      `json:"warning_sent_at,omitempty"` // grace warning, sent at most once
	CanceledAt    *time.Time      `json:"canceled_at,omitempty"`
	CancelReason  string          `gorm:"type:text" json:"cancel_reason,omitempty"`
}

// TableName returns the table name for GORM
func (CheckIn) TableName() string {
	return "check_ins"
}

// NewCheckIn creates a pending check-in. The deposit must be paid before
// depositDueAt or the sweep expires the request.
func NewCheckIn(roomID uuid.UUID, tenant Tenant, depositAmount valueobject.Money, moveInDate, depositDueAt time.Time) (*CheckIn, error) {
	if roomID == uuid.Nil {
		return nil, NewValidationError("room ID is required")
	}
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	if !depositAmount.IsPositive() {
		return nil, NewValidationError("deposit amount must be positive")
	}
	if !depositDueAt.After(time.Now()) {
		return nil, NewValidationError("deposit due date must be in the future")
	}

	checkIn := &CheckIn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RoomID:            roomID,
		Tenant:            tenant,
		Status:            CheckInStatusPending,
		DepositAmount:     depositAmount.Amount(),
		MoveInDate:        moveInDate,
		DepositDueAt:      depositDueAt,
	}
	checkIn.AddDomainEvent(NewCheckInCreatedEvent(checkIn.ID, roomID, tenant.FullName, depositAmount.Amount(), depositDueAt))
	return checkIn, nil
}

// GetDepositAmountMoney returns the required deposit as Money
func (c *CheckIn) GetDepositAmountMoney() valueobject.Money {
	return valueobject.NewMoneyVND(c.DepositAmount)
}

// MarkDepositPaid records the deposit receipt settling. Repeat calls for
// the same receipt are no-ops.
func (c *CheckIn) MarkDepositPaid(paidAt time.Time) error {
	if c.Status == CheckInStatusDepositPaid {
		return nil
	}
	if c.Status != CheckInStatusPending {
		return NewInvalidStateTransitionError("mark deposit paid", c.Status.String(), CheckInStatusDepositPaid.String())
	}

	c.Status = CheckInStatusDepositPaid
	c.DepositPaidAt = &paidAt
	c.IncrementVersion()
	c.AddDomainEvent(NewDepositPaidEvent(c.ID, c.RoomID, c.DepositAmount, paidAt))
	return nil
}

// AttachReceiptBill links the deposit receipt bill issued for this check-in
func (c *CheckIn) AttachReceiptBill(billID uuid.UUID) error {
	if c.Status != CheckInStatusPending {
		return NewInvalidStateTransitionError("attach receipt bill", c.Status.String(), c.Status.String())
	}
	c.ReceiptBillID = &billID
	c.IncrementVersion()
	return nil
}

// AttachContract links the contract created for this check-in
func (c *CheckIn) AttachContract(contractID uuid.UUID) error {
	if c.Status != CheckInStatusDepositPaid {
		return NewInvalidStateTransitionError("attach contract", c.Status.String(), c.Status.String())
	}
	c.ContractID = &contractID
	c.IncrementVersion()
	return nil
}

// Complete closes the check-in once its contract is finalized
func (c *CheckIn) Complete() error {
	if c.Status == CheckInStatusCompleted {
		return nil
	}
	if c.Status != CheckInStatusDepositPaid {
		return NewInvalidStateTransitionError("complete check-in", c.Status.String(), CheckInStatusCompleted.String())
	}

	c.Status = CheckInStatusCompleted
	c.IncrementVersion()
	c.AddDomainEvent(NewCheckInCompletedEvent(c.ID, c.RoomID, c.ContractID))
	return nil
}

// Cancel aborts the check-in. A paid deposit is forfeited in full.
func (c *CheckIn) Cancel(reason string) error {
	if c.Status.IsTerminal() {
		return NewInvalidStateTransitionError("cancel check-in", c.Status.String(), CheckInStatusCanceled.String())
	}
	if reason == "" {
		return NewValidationError("cancel reason is required")
	}

	now := time.Now()
	forfeited := c.DepositPaidAt != nil
	c.Status = CheckInStatusCanceled
	c.CanceledAt = &now
	c.CancelReason = reason
	c.IncrementVersion()
	c.AddDomainEvent(NewCheckInCanceledEvent(c.ID, c.RoomID, reason, forfeited))
	return nil
}

// Expire is invoked by the grace sweep when the deposit window ran out.
// Only a still-pending check-in expires; anything else is a no-op so the
// sweep stays idempotent.
func (c *CheckIn) Expire(now time.Time) bool {
	if c.Status != CheckInStatusPending || now.Before(c.DepositDueAt) {
		return false
	}

	c.Status = CheckInStatusExpired
	c.CanceledAt = &now
	c.CancelReason = "deposit grace window expired"
	c.IncrementVersion()
	c.AddDomainEvent(NewCheckInExpiredEvent(c.ID, c.RoomID, c.DepositDueAt))
	return true
}

// NeedsGraceWarning reports whether the one-day warning is due and not yet sent
func (c *CheckIn) NeedsGraceWarning(now time.Time, warningLead time.Duration) bool {
	if c.Status != CheckInStatusPending || c.WarningSentAt != nil {
		return false
	}
	return now.After(c.DepositDueAt.Add(-warningLead)) && now.Before(c.DepositDueAt)
}

// MarkGraceWarningSent records the warning so it is never sent twice
func (c *CheckIn) MarkGraceWarningSent(now time.Time) {
	c.WarningSentAt = &now
	c.IncrementVersion()
	c.AddDomainEvent(NewDepositGraceWarningEvent(c.ID, c.RoomID, c.Tenant.FullName, c.DepositDueAt))
}
