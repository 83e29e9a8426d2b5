package leasing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RoomFilter holds query options for listing rooms
type RoomFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   *RoomStatus
	Floor    *int
}

// RoomRepository is the persistence port for Room aggregates
type RoomRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Room, error)
	FindByCode(ctx context.Context, code string) (*Room, error)
	FindAll(ctx context.Context, filter RoomFilter) ([]Room, error)
	Count(ctx context.Context, filter RoomFilter) (int64, error)
	Save(ctx context.Context, room *Room) error
	SaveWithLock(ctx context.Context, room *Room) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CheckInFilter holds query options for listing check-ins
type CheckInFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Status   *CheckInStatus
	RoomID   *uuid.UUID
}

// CheckInRepository is the persistence port for CheckIn aggregates
type CheckInRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CheckIn, error)
	// FindPendingByRoom returns the non-terminal check-in holding the room, if any
	FindPendingByRoom(ctx context.Context, roomID uuid.UUID) (*CheckIn, error)
	// FindByReceiptBill resolves the check-in a deposit receipt bill was issued for
	FindByReceiptBill(ctx context.Context, billID uuid.UUID) (*CheckIn, error)
	// FindPendingDepositDueBefore returns pending check-ins whose deposit
	// window ends before the deadline; the grace sweep feeds on this
	FindPendingDepositDueBefore(ctx context.Context, deadline time.Time) ([]CheckIn, error)
	FindAll(ctx context.Context, filter CheckInFilter) ([]CheckIn, error)
	Count(ctx context.Context, filter CheckInFilter) (int64, error)
	Save(ctx context.Context, checkIn *CheckIn) error
	SaveWithLock(ctx context.Context, checkIn *CheckIn) error
}

// ContractFilter holds query options for listing contracts
type ContractFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   *ContractStatus
	RoomID   *uuid.UUID
}

// ContractRepository is the persistence port for Contract aggregates
type ContractRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)
	FindByNumber(ctx context.Context, contractNumber string) (*Contract, error)
	// FindActiveByRoom returns the room's running contract, if any
	FindActiveByRoom(ctx context.Context, roomID uuid.UUID) (*Contract, error)
	FindByCheckIn(ctx context.Context, checkInID uuid.UUID) (*Contract, error)
	FindAll(ctx context.Context, filter ContractFilter) ([]Contract, error)
	Count(ctx context.Context, filter ContractFilter) (int64, error)
	Save(ctx context.Context, contract *Contract) error
	SaveWithLock(ctx context.Context, contract *Contract) error
	GenerateContractNumber(ctx context.Context) (string, error)
}
