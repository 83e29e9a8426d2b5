package leasing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// RoomStatus reflects a room's occupancy. It is a projection derived from
// the room's active contract and pending check-in, never edited directly;
// MAINTENANCE is the one operator-set exception.
type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "AVAILABLE"
	RoomStatusDeposited    RoomStatus = "DEPOSITED" // pending check-in holds the room
	RoomStatusOccupied    RoomStatus = "OCCUPIED"
	RoomStatusMaintenance RoomStatus = "MAINTENANCE"
)

// IsValid checks if the status is valid
func (s RoomStatus) IsValid() bool {
	switch s {
	case RoomStatusAvailable, RoomStatusDeposited, RoomStatusOccupied, RoomStatusMaintenance:
		return true
	}
	return false
}

// String returns the status as string
func (s RoomStatus) String() string {
	return string(s)
}

// RoomTariff wraps the billing tariff for JSONB storage on the room row.
// A null column means the room bills at the default tariff.
type RoomTariff struct {
	billing.Tariff
}

// Value implements driver.Valuer
func (t *RoomTariff) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner
func (t *RoomTariff) Scan(value any) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into RoomTariff", value)
		}
	}
	return json.Unmarshal(bytes, t)
}

// Room is a rentable unit
type Room struct {
	shared.BaseAggregateRoot
	Code          string          `gorm:"uniqueIndex;not null;size:32" json:"code"`
	Floor         int             `gorm:"default:1" json:"floor"`
	AreaM2        decimal.Decimal `gorm:"type:decimal(10,2)" json:"area_m2"`
	MonthlyRent   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"monthly_rent"`
	DepositAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"deposit_amount"`
	MaxOccupants  int             `gorm:"default:2" json:"max_occupants"`
	Status        RoomStatus      `gorm:"not null;default:'AVAILABLE';index" json:"status"`
	Tariff        *RoomTariff     `gorm:"type:jsonb" json:"tariff,omitempty"`
	Description   string          `gorm:"type:text" json:"description,omitempty"`
}

// TableName returns the table name for GORM
func (Room) TableName() string {
	return "rooms"
}

// NewRoom creates a room in AVAILABLE status
func NewRoom(code string, monthlyRent, depositAmount valueobject.Money) (*Room, error) {
	if strings.TrimSpace(code) == "" {
		return nil, NewValidationError("room code is required")
	}
	if monthlyRent.IsNegative() {
		return nil, NewValidationError("monthly rent cannot be negative")
	}
	if depositAmount.IsNegative() {
		return nil, NewValidationError("deposit amount cannot be negative")
	}

	room := &Room{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.TrimSpace(code),
		Floor:             1,
		MonthlyRent:       monthlyRent.Amount(),
		DepositAmount:     depositAmount.Amount(),
		MaxOccupants:      2,
		Status:            RoomStatusAvailable,
	}
	return room, nil
}

// GetMonthlyRentMoney returns the rent as Money
func (r *Room) GetMonthlyRentMoney() valueobject.Money {
	return valueobject.NewMoneyVND(r.MonthlyRent)
}

// GetDepositAmountMoney returns the required deposit as Money
func (r *Room) GetDepositAmountMoney() valueobject.Money {
	return valueobject.NewMoneyVND(r.DepositAmount)
}

// BillingTariff returns the room's tariff override, or nil for the default
func (r *Room) BillingTariff() *billing.Tariff {
	if r.Tariff == nil {
		return nil
	}
	return &r.Tariff.Tariff
}

// UpdateRent changes the room's monthly rent. Running contracts keep the
// rent they were signed at.
func (r *Room) UpdateRent(rent valueobject.Money) error {
	if r == nil {
		return shared.ErrNotFound
	}
	if rent.IsNegative() {
		return NewValidationError("monthly rent cannot be negative")
	}
	r.MonthlyRent = rent.Amount()
	r.IncrementVersion()
	return nil
}

// SetMaintenance takes the room out of circulation. Only an available room
// can go into maintenance.
func (r *Room) SetMaintenance() error {
	if r.Status != RoomStatusAvailable {
		return NewInvalidStateTransitionError("set maintenance", r.Status.String(), RoomStatusMaintenance.String())
	}
	r.Status = RoomStatusMaintenance
	r.IncrementVersion()
	return nil
}

// ProjectStatus recomputes the occupancy projection from the room's
// current contract and check-in facts. MAINTENANCE is sticky until the
// operator clears it.
func (r *Room) ProjectStatus(hasActiveContract, hasPendingCheckIn bool) {
	if r.Status == RoomStatusMaintenance {
		return
	}

	next := RoomStatusAvailable
	switch {
	case hasActiveContract:
		next = RoomStatusOccupied
	case hasPendingCheckIn:
		next = RoomStatusDeposited
	}
	if next == r.Status {
		return
	}

	previous := r.Status
	r.Status = next
	r.IncrementVersion()
	r.AddDomainEvent(NewRoomStatusChangedEvent(r.ID, r.Code, previous, next))
}

// ClearMaintenance returns a maintenance room to the projection
func (r *Room) ClearMaintenance() error {
	if r.Status != RoomStatusMaintenance {
		return NewInvalidStateTransitionError("clear maintenance", r.Status.String(), RoomStatusAvailable.String())
	}
	r.Status = RoomStatusAvailable
	r.IncrementVersion()
	return nil
}
