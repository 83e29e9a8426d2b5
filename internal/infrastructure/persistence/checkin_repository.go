package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nhatro/backend/internal/domain/leasing"
	"github.com/nhatro/backend/internal/domain/shared"
)

// GormCheckInRepository implements leasing.CheckInRepository using GORM
type GormCheckInRepository struct {
	db *gorm.DB
}

// NewGormCheckInRepository creates a new GormCheckInRepository
func NewGormCheckInRepository(db *gorm.DB) *GormCheckInRepository {
	return &GormCheckInRepository{db: db}
}

// FindByID finds a check-in by its ID
func (r *GormCheckInRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.CheckIn, error) {
	var checkIn leasing.CheckIn
	if err := r.db.WithContext(ctx).First(&checkIn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &checkIn, nil
}

// FindPendingByRoom returns the non-terminal check-in holding the room, if any
func (r *GormCheckInRepository) FindPendingByRoom(ctx context.Context, roomID uuid.UUID) (*leasing.CheckIn, error) {
	var checkIn leasing.CheckIn
	if err := r.db.WithContext(ctx).
		Where("room_id = ? AND status IN ?", roomID,
			[]leasing.CheckInStatus{leasing.CheckInStatusPending, leasing.CheckInStatusDepositPaid}).
		Order("created_at DESC").
		First(&checkIn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &checkIn, nil
}

// FindByReceiptBill resolves the check-in a deposit receipt bill was issued for
func (r *GormCheckInRepository) FindByReceiptBill(ctx context.Context, billID uuid.UUID) (*leasing.CheckIn, error) {
	var checkIn leasing.CheckIn
	if err := r.db.WithContext(ctx).
		Where("receipt_bill_id = ?", billID).
		First(&checkIn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &checkIn, nil
}

// FindPendingDepositDueBefore returns pending check-ins whose deposit window
// ends before the deadline. The grace sweep feeds on this.
func (r *GormCheckInRepository) FindPendingDepositDueBefore(ctx context.Context, deadline time.Time) ([]leasing.CheckIn, error) {
	var checkIns []leasing.CheckIn
	if err := r.db.WithContext(ctx).
		Where("status = ? AND deposit_due_at < ?", leasing.CheckInStatusPending, deadline).
		Order("deposit_due_at ASC").
		Find(&checkIns).Error; err != nil {
		return nil, err
	}
	return checkIns, nil
}

// FindAll finds check-ins matching the filter
func (r *GormCheckInRepository) FindAll(ctx context.Context, filter leasing.CheckInFilter) ([]leasing.CheckIn, error) {
	var checkIns []leasing.CheckIn
	query := r.db.WithContext(ctx).Model(&leasing.CheckIn{})
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, CheckInSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&checkIns).Error; err != nil {
		return nil, err
	}
	return checkIns, nil
}

// Count counts check-ins matching the filter
func (r *GormCheckInRepository) Count(ctx context.Context, filter leasing.CheckInFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&leasing.CheckIn{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a check-in
func (r *GormCheckInRepository) Save(ctx context.Context, checkIn *leasing.CheckIn) error {
	return r.db.WithContext(ctx).Save(checkIn).Error
}

// SaveWithLock saves a check-in with optimistic locking on the aggregate version
func (r *GormCheckInRepository) SaveWithLock(ctx context.Context, checkIn *leasing.CheckIn) error {
	result := r.db.WithContext(ctx).
		Model(checkIn).
		Where("id = ? AND version = ?", checkIn.ID, checkIn.Version-1).
		Select("*").
		Updates(checkIn)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormCheckInRepository) applyFilterWithoutPagination(query *gorm.DB, filter leasing.CheckInFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.RoomID != nil {
		query = query.Where("room_id = ?", *filter.RoomID)
	}
	return query
}

// Ensure GormCheckInRepository implements CheckInRepository
var _ leasing.CheckInRepository = (*GormCheckInRepository)(nil)
