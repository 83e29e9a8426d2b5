package leasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/shared"
)

// CheckInCreatedEvent is raised when a tenant requests a room
type CheckInCreatedEvent struct {
	shared.BaseDomainEvent
	CheckInID     uuid.UUID       `json:"check_in_id"`
	RoomID        uuid.UUID       `json:"room_id"`
	TenantName    string          `json:"tenant_name"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	DepositDueAt  time.Time       `json:"deposit_due_at"`
}

// EventType returns the event type name
func (e *CheckInCreatedEvent) EventType() string {
	return "CheckInCreated"
}

// NewCheckInCreatedEvent creates a new CheckInCreatedEvent
func NewCheckInCreatedEvent(checkInID, roomID uuid.UUID, tenantName string, depositAmount decimal.Decimal, depositDueAt time.Time) *CheckInCreatedEvent {
	return &CheckInCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CheckInCreated", "CheckIn", checkInID),
		CheckInID:       checkInID,
		RoomID:          roomID,
		TenantName:      tenantName,
		DepositAmount:   depositAmount,
		DepositDueAt:    depositDueAt,
	}
}

// DepositPaidEvent is raised when the check-in deposit receipt settles
type DepositPaidEvent struct {
	shared.BaseDomainEvent
	CheckInID uuid.UUID       `json:"check_in_id"`
	RoomID    uuid.UUID       `json:"room_id"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *DepositPaidEvent) EventType() string {
	return "DepositPaid"
}

// NewDepositPaidEvent creates a new DepositPaidEvent
func NewDepositPaidEvent(checkInID, roomID uuid.UUID, amount decimal.Decimal, paidAt time.Time) *DepositPaidEvent {
	return &DepositPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DepositPaid", "CheckIn", checkInID),
		CheckInID:       checkInID,
		RoomID:          roomID,
		Amount:          amount,
		PaidAt:          paidAt,
	}
}

// CheckInCompletedEvent is raised when the tenant has moved in
type CheckInCompletedEvent struct {
	shared.BaseDomainEvent
	CheckInID  uuid.UUID  `json:"check_in_id"`
	RoomID     uuid.UUID  `json:"room_id"`
	ContractID *uuid.UUID `json:"contract_id,omitempty"`
}

// EventType returns the event type name
func (e *CheckInCompletedEvent) EventType() string {
	return "CheckInCompleted"
}

// NewCheckInCompletedEvent creates a new CheckInCompletedEvent
func NewCheckInCompletedEvent(checkInID, roomID uuid.UUID, contractID *uuid.UUID) *CheckInCompletedEvent {
	return &CheckInCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CheckInCompleted", "CheckIn", checkInID),
		CheckInID:       checkInID,
		RoomID:          roomID,
		ContractID:      contractID,
	}
}

// CheckInCanceledEvent is raised when a check-in is aborted
type CheckInCanceledEvent struct {
	shared.BaseDomainEvent
	CheckInID        uuid.UUID `json:"check_in_id"`
	RoomID           uuid.UUID `json:"room_id"`
	Reason           string    `json:"reason"`
	DepositForfeited bool      `json:"deposit_forfeited"`
}

// EventType returns the event type name
func (e *CheckInCanceledEvent) EventType() string {
	return "CheckInCanceled"
}

// NewCheckInCanceledEvent creates a new CheckInCanceledEvent
func NewCheckInCanceledEvent(checkInID, roomID uuid.UUID, reason string, depositForfeited bool) *CheckInCanceledEvent {
	return &CheckInCanceledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("CheckInCanceled", "CheckIn", checkInID),
		CheckInID:        checkInID,
		RoomID:           roomID,
		Reason:           reason,
		DepositForfeited: depositForfeited,
	}
}

// CheckInExpiredEvent is raised when the deposit grace window runs out
type CheckInExpiredEvent struct {
	shared.BaseDomainEvent
	CheckInID    uuid.UUID `json:"check_in_id"`
	RoomID       uuid.UUID `json:"room_id"`
	DepositDueAt time.Time `json:"deposit_due_at"`
}

// EventType returns the event type name
func (e *CheckInExpiredEvent) EventType() string {
	return "CheckInExpired"
}

// NewCheckInExpiredEvent creates a new CheckInExpiredEvent
func NewCheckInExpiredEvent(checkInID, roomID uuid.UUID, depositDueAt time.Time) *CheckInExpiredEvent {
	return &CheckInExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CheckInExpired", "CheckIn", checkInID),
		CheckInID:       checkInID,
		RoomID:          roomID,
		DepositDueAt:    depositDueAt,
	}
}

// DepositGraceWarningEvent is raised once when one day of grace remains
type DepositGraceWarningEvent struct {
	shared.BaseDomainEvent
	CheckInID    uuid.UUID `json:"check_in_id"`
	RoomID       uuid.UUID `json:"room_id"`
	TenantName   string    `json:"tenant_name"`
	DepositDueAt time.Time `json:"deposit_due_at"`
}

// EventType returns the event type name
func (e *DepositGraceWarningEvent) EventType() string {
	return "DepositGraceWarning"
}

// NewDepositGraceWarningEvent creates a new DepositGraceWarningEvent
func NewDepositGraceWarningEvent(checkInID, roomID uuid.UUID, tenantName string, depositDueAt time.Time) *DepositGraceWarningEvent {
	return &DepositGraceWarningEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DepositGraceWarning", "CheckIn", checkInID),
		CheckInID:       checkInID,
		RoomID:          roomID,
		TenantName:      tenantName,
		DepositDueAt:    depositDueAt,
	}
}

// ContractCreatedEvent is raised when a contract is drawn up
type ContractCreatedEvent struct {
	shared.BaseDomainEvent
	ContractID     uuid.UUID `json:"contract_id"`
	RoomID         uuid.UUID `json:"room_id"`
	CheckInID      uuid.UUID `json:"check_in_id"`
	ContractNumber string    `json:"contract_number"`
}

// EventType returns the event type name
func (e *ContractCreatedEvent) EventType() string {
	return "ContractCreated"
}

// NewContractCreatedEvent creates a new ContractCreatedEvent
func NewContractCreatedEvent(contractID, roomID, checkInID uuid.UUID, contractNumber string) *ContractCreatedEvent {
	return &ContractCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ContractCreated", "Contract", contractID),
		ContractID:      contractID,
		RoomID:          roomID,
		CheckInID:       checkInID,
		ContractNumber:  contractNumber,
	}
}

// DepositRecordedEvent is raised when a deposit credit lands on the contract
type DepositRecordedEvent struct {
	shared.BaseDomainEvent
	ContractID uuid.UUID       `json:"contract_id"`
	RoomID     uuid.UUID       `json:"room_id"`
	Amount     decimal.Decimal `json:"amount"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	PaidAt     time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *DepositRecordedEvent) EventType() string {
	return "DepositRecorded"
}

// NewDepositRecordedEvent creates a new DepositRecordedEvent
func NewDepositRecordedEvent(contractID, roomID uuid.UUID, amount, totalPaid decimal.Decimal, paidAt time.Time) *DepositRecordedEvent {
	return &DepositRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DepositRecorded", "Contract", contractID),
		ContractID:      contractID,
		RoomID:          roomID,
		Amount:          amount,
		TotalPaid:       totalPaid,
		PaidAt:          paidAt,
	}
}

// ContractFinalizedEvent is raised when monthly billing is unlocked
type ContractFinalizedEvent struct {
	shared.BaseDomainEvent
	ContractID  uuid.UUID `json:"contract_id"`
	RoomID      uuid.UUID `json:"room_id"`
	CheckInID   uuid.UUID `json:"check_in_id"`
	FinalizedAt time.Time `json:"finalized_at"`
}

// EventType returns the event type name
func (e *ContractFinalizedEvent) EventType() string {
	return "ContractFinalized"
}

// NewContractFinalizedEvent creates a new ContractFinalizedEvent
func NewContractFinalizedEvent(contractID, roomID, checkInID uuid.UUID, finalizedAt time.Time) *ContractFinalizedEvent {
	return &ContractFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ContractFinalized", "Contract", contractID),
		ContractID:      contractID,
		RoomID:          roomID,
		CheckInID:       checkInID,
		FinalizedAt:     finalizedAt,
	}
}

// ContractEndedEvent is raised at move-out with the signed refund amount
type ContractEndedEvent struct {
	shared.BaseDomainEvent
	ContractID   uuid.UUID       `json:"contract_id"`
	RoomID       uuid.UUID       `json:"room_id"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	EndedAt      time.Time       `json:"ended_at"`
}

// EventType returns the event type name
func (e *ContractEndedEvent) EventType() string {
	return "ContractEnded"
}

// NewContractEndedEvent creates a new ContractEndedEvent
func NewContractEndedEvent(contractID, roomID uuid.UUID, refundAmount decimal.Decimal, endedAt time.Time) *ContractEndedEvent {
	return &ContractEndedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ContractEnded", "Contract", contractID),
		ContractID:      contractID,
		RoomID:          roomID,
		RefundAmount:    refundAmount,
		EndedAt:         endedAt,
	}
}

// ContractCanceledEvent is raised when a contract is aborted before move-in
type ContractCanceledEvent struct {
	shared.BaseDomainEvent
	ContractID       uuid.UUID       `json:"contract_id"`
	RoomID           uuid.UUID       `json:"room_id"`
	Reason           string          `json:"reason"`
	DepositForfeited decimal.Decimal `json:"deposit_forfeited"`
	CanceledAt       time.Time       `json:"canceled_at"`
}

// EventType returns the event type name
func (e *ContractCanceledEvent) EventType() string {
	return "ContractCanceled"
}

// NewContractCanceledEvent creates a new ContractCanceledEvent
func NewContractCanceledEvent(contractID, roomID uuid.UUID, reason string, depositForfeited decimal.Decimal, canceledAt time.Time) *ContractCanceledEvent {
	return &ContractCanceledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("ContractCanceled", "Contract", contractID),
		ContractID:       contractID,
		RoomID:           roomID,
		Reason:           reason,
		DepositForfeited: depositForfeited,
		CanceledAt:       canceledAt,
	}
}

// RoomStatusChangedEvent is raised when the occupancy projection moves
type RoomStatusChangedEvent struct {
	shared.BaseDomainEvent
	RoomID     uuid.UUID  `json:"room_id"`
	RoomCode   string     `json:"room_code"`
	FromStatus RoomStatus `json:"from_status"`
	ToStatus   RoomStatus `json:"to_status"`
}

// EventType returns the event type name
func (e *RoomStatusChangedEvent) EventType() string {
	return "RoomStatusChanged"
}

// NewRoomStatusChangedEvent creates a new RoomStatusChangedEvent
func NewRoomStatusChangedEvent(roomID uuid.UUID, roomCode string, from, to RoomStatus) *RoomStatusChangedEvent {
	return &RoomStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RoomStatusChanged", "Room", roomID),
		RoomID:          roomID,
		RoomCode:        roomCode,
		FromStatus:      from,
		ToStatus:        to,
	}
}
