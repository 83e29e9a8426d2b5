package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BillFilter holds query options for listing bills
type BillFilter struct {
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
	Search     string
	BillType   *BillType
	Status     *BillStatus
	ContractID *uuid.UUID
	RoomID     *uuid.UUID
	Period     *string
	FromDate   *time.Time
	ToDate     *time.Time
}

// BillRepository is the persistence port for Bill aggregates
type BillRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	FindByNumber(ctx context.Context, billNumber string) (*Bill, error)
	FindByContract(ctx context.Context, contractID uuid.UUID, filter BillFilter) ([]Bill, error)
	// FindByContractAndType returns the newest non-void bill of the given type
	FindByContractAndType(ctx context.Context, contractID uuid.UUID, billType BillType) (*Bill, error)
	// FindMonthlyByPeriod returns the monthly bill for a contract and YYYY-MM period
	FindMonthlyByPeriod(ctx context.Context, contractID uuid.UUID, period string) (*Bill, error)
	FindAll(ctx context.Context, filter BillFilter) ([]Bill, error)
	Count(ctx context.Context, filter BillFilter) (int64, error)
	Save(ctx context.Context, bill *Bill) error
	// SaveWithLock persists with optimistic locking on the aggregate version.
	// Returns shared.ErrConcurrencyConflict when the row changed underneath.
	SaveWithLock(ctx context.Context, bill *Bill) error
	// DeleteDraft removes a still-draft bill (the only physical delete allowed)
	DeleteDraft(ctx context.Context, id uuid.UUID) error
	GenerateBillNumber(ctx context.Context, billType BillType) (string, error)
}
