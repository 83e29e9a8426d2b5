package leasing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// ContractStatus is the state of a rental contract
type ContractStatus string

const (
	ContractStatusActive   ContractStatus = "ACTIVE"
	ContractStatusEnded    ContractStatus = "ENDED"
	ContractStatusCanceled ContractStatus = "CANCELED"
)

// IsValid checks if the status is valid
func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractStatusActive, ContractStatusEnded, ContractStatusCanceled:
		return true
	}
	return false
}

// String returns the status as string
func (s ContractStatus) String() string {
	return string(s)
}

// Contract is the rental agreement for a room. It is created after the
// check-in deposit is received and must be finalized before monthly
// billing starts.
type Contract struct {
	shared.BaseAggregateRoot
	ContractNumber   string          `gorm:"uniqueIndex;not null;size:64" json:"contract_number"`
	RoomID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"room_id"`
	CheckInID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"check_in_id"`
	PrimaryTenant    Tenant          `gorm:"embedded;embeddedPrefix:tenant_" json:"primary_tenant"`
	CoTenants        Tenants         `gorm:"type:jsonb" json:"co_tenants,omitempty"`
	Status           ContractStatus  `gorm:"not null;default:'ACTIVE';index" json:"status"`
	Finalized        bool            `gorm:"not null;default:false" json:"finalized"`
	StartDate        time.Time       `gorm:"not null" json:"start_date"`
	EndDate          *time.Time      `json:"end_date,omitempty"`
	MonthlyRent      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"monthly_rent"`
	DepositRequired  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"deposit_required"`
	TotalDepositPaid decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_deposit_paid"`
	FinalizedAt      *time.Time      `json:"finalized_at,omitempty"`
	EndedAt          *time.Time      `json:"ended_at,omitempty"`
	CancelReason     string          `gorm:"type:text" json:"cancel_reason,omitempty"`
	RefundAmount     *decimal.Decimal `gorm:"type:decimal(20,2)" json:"refund_amount,omitempty"`
}

// TableName returns the table name for GORM
func (Contract) TableName() string {
	return "contracts"
}

// NewContract creates an active, unfinalized contract. The rent is locked
// in at signing; later room price changes do not apply.
func NewContract(contractNumber string, roomID, checkInID uuid.UUID, primaryTenant Tenant,
	monthlyRent, depositRequired valueobject.Money, startDate time.Time) (*Contract, error) {
	if strings.TrimSpace(contractNumber) == "" {
		return nil, NewValidationError("contract number is required")
	}
	if roomID == uuid.Nil {
		return nil, NewValidationError("room ID is required")
	}
	if checkInID == uuid.Nil {
		return nil, NewValidationError("check-in ID is required")
	}
	if err := primaryTenant.Validate(); err != nil {
		return nil, err
	}
	if monthlyRent.IsNegative() {
		return nil, NewValidationError("monthly rent cannot be negative")
	}
	if depositRequired.IsNegative() {
		return nil, NewValidationError("deposit cannot be negative")
	}

	contract := &Contract{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ContractNumber:    strings.TrimSpace(contractNumber),
		RoomID:            roomID,
		CheckInID:         checkInID,
		PrimaryTenant:     primaryTenant,
		CoTenants:         Tenants{},
		Status:            ContractStatusActive,
		StartDate:         startDate,
		MonthlyRent:       monthlyRent.Amount(),
		DepositRequired:   depositRequired.Amount(),
		TotalDepositPaid:  decimal.Zero,
	}
	contract.AddDomainEvent(NewContractCreatedEvent(contract.ID, roomID, checkInID, contract.ContractNumber))
	return contract, nil
}

// GetMonthlyRentMoney returns the contracted rent as Money
func (c *Contract) GetMonthlyRentMoney() valueobject.Money {
	return valueobject.NewMoneyVND(c.MonthlyRent)
}

// GetTotalDepositPaidMoney returns the deposit paid so far as Money
func (c *Contract) GetTotalDepositPaidMoney() valueobject.Money {
	return valueobject.NewMoneyVND(c.TotalDepositPaid)
}

// DepositCovered reports whether the recorded deposit credits reach the
// required deposit
func (c *Contract) DepositCovered() bool {
	return c.TotalDepositPaid.GreaterThanOrEqual(c.DepositRequired)
}

// IsActive reports whether the contract is running
func (c *Contract) IsActive() bool {
	return c.Status == ContractStatusActive
}

// CanGenerateMonthlyBills reports whether monthly billing is unlocked
func (c *Contract) CanGenerateMonthlyBills() bool {
	return c.Status == ContractStatusActive && c.Finalized
}

// RecordDepositPayment accumulates a deposit credit from a receipt or
// contract bill settling
func (c *Contract) RecordDepositPayment(amount valueobject.Money, paidAt time.Time) error {
	if c.Status != ContractStatusActive {
		return NewInvalidStateTransitionError("record deposit payment", c.Status.String(), c.Status.String())
	}
	if !amount.IsPositive() {
		return NewValidationError("deposit payment must be positive")
	}

	c.TotalDepositPaid = c.TotalDepositPaid.Add(amount.Amount())
	c.IncrementVersion()
	c.AddDomainEvent(NewDepositRecordedEvent(c.ID, c.RoomID, amount.Amount(), c.TotalDepositPaid, paidAt))
	return nil
}

// AddCoTenant registers another occupant on the contract
func (c *Contract) AddCoTenant(tenant Tenant) error {
	if c.Status != ContractStatusActive {
		return NewInvalidStateTransitionError("add co-tenant", c.Status.String(), c.Status.String())
	}
	if err := tenant.Validate(); err != nil {
		return err
	}
	c.CoTenants = append(c.CoTenants, tenant)
	c.IncrementVersion()
	return nil
}

// Finalize unlocks monthly billing. Repeat calls are no-ops.
func (c *Contract) Finalize(at time.Time) error {
	if c.Finalized {
		return nil
	}
	if c.Status != ContractStatusActive {
		return NewInvalidStateTransitionError("finalize contract", c.Status.String(), c.Status.String())
	}

	c.Finalized = true
	c.FinalizedAt = &at
	c.IncrementVersion()
	c.AddDomainEvent(NewContractFinalizedEvent(c.ID, c.RoomID, c.CheckInID, at))
	return nil
}

// ComputeDepositRefund returns the signed settlement amount at move-out:
//
//	refund = totalDepositPaid - finalMonthServiceFees - damageCharges
//
// A negative result means the tenant still owes the difference. The value
// is never clamped to zero.
func (c *Contract) ComputeDepositRefund(finalMonthServiceFees, damageCharges valueobject.Money) (valueobject.Money, error) {
	if finalMonthServiceFees.IsNegative() {
		return valueobject.Money{}, NewValidationError("final month service fees cannot be negative")
	}
	if damageCharges.IsNegative() {
		return valueobject.Money{}, NewValidationError("damage charges cannot be negative")
	}
	refund := c.GetTotalDepositPaidMoney().
		MustSubtract(finalMonthServiceFees).
		MustSubtract(damageCharges)
	return refund, nil
}

// End closes the contract at move-out with the computed refund
func (c *Contract) End(refund valueobject.Money, at time.Time) error {
	if c.Status != ContractStatusActive {
		return NewInvalidStateTransitionError("end contract", c.Status.String(), ContractStatusEnded.String())
	}

	amount := refund.Amount()
	c.Status = ContractStatusEnded
	c.EndedAt = &at
	c.EndDate = &at
	c.RefundAmount = &amount
	c.IncrementVersion()
	c.AddDomainEvent(NewContractEndedEvent(c.ID, c.RoomID, amount, at))
	return nil
}

// Cancel aborts the contract before move-in. The full deposit is forfeited.
func (c *Contract) Cancel(reason string, at time.Time) error {
	if c.Status != ContractStatusActive {
		return NewInvalidStateTransitionError("cancel contract", c.Status.String(), ContractStatusCanceled.String())
	}
	if reason == "" {
		return NewValidationError("cancel reason is required")
	}

	zero := decimal.Zero
	c.Status = ContractStatusCanceled
	c.EndedAt = &at
	c.CancelReason = reason
	c.RefundAmount = &zero
	c.IncrementVersion()
	c.AddDomainEvent(NewContractCanceledEvent(c.ID, c.RoomID, reason, c.TotalDepositPaid, at))
	return nil
}
