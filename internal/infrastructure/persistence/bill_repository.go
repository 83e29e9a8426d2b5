package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/shared"
)

// billNumberPrefixes maps bill types to the prefix of their generated numbers.
// PT = phieu thu (receipt), HDGT = contract bill, HD = monthly bill.
var billNumberPrefixes = map[billing.BillType]string{
	billing.BillTypeReceipt:  "PT",
	billing.BillTypeContract: "HDGT",
	billing.BillTypeMonthly:  "HD",
}

// GormBillRepository implements billing.BillRepository using GORM
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// FindByID finds a bill by its ID
func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	var bill billing.Bill
	if err := r.db.WithContext(ctx).First(&bill, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

// FindByNumber finds a bill by its bill number
func (r *GormBillRepository) FindByNumber(ctx context.Context, billNumber string) (*billing.Bill, error) {
	var bill billing.Bill
	if err := r.db.WithContext(ctx).
		Where("bill_number = ?", billNumber).
		First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

// FindByContract finds bills belonging to a contract
func (r *GormBillRepository) FindByContract(ctx context.Context, contractID uuid.UUID, filter billing.BillFilter) ([]billing.Bill, error) {
	filter.ContractID = &contractID
	return r.FindAll(ctx, filter)
}

// FindByContractAndType returns the newest non-void bill of the given type
// for a contract. Used for the one-contract-bill-per-contract guard.
func (r *GormBillRepository) FindByContractAndType(ctx context.Context, contractID uuid.UUID, billType billing.BillType) (*billing.Bill, error) {
	var bill billing.Bill
	if err := r.db.WithContext(ctx).
		Where("contract_id = ? AND bill_type = ? AND status <> ?", contractID, billType, billing.BillStatusVoid).
		Order("created_at DESC").
		First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

// FindMonthlyByPeriod returns the monthly bill for a contract and YYYY-MM
// period, ignoring voided bills.
func (r *GormBillRepository) FindMonthlyByPeriod(ctx context.Context, contractID uuid.UUID, period string) (*billing.Bill, error) {
	var bill billing.Bill
	if err := r.db.WithContext(ctx).
		Where("contract_id = ? AND bill_type = ? AND period = ? AND status <> ?",
			contractID, billing.BillTypeMonthly, period, billing.BillStatusVoid).
		Order("created_at DESC").
		First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

// FindAll finds bills matching the filter
func (r *GormBillRepository) FindAll(ctx context.Context, filter billing.BillFilter) ([]billing.Bill, error) {
	var bills []billing.Bill
	query := r.db.WithContext(ctx).Model(&billing.Bill{})
	query = r.applyFilter(query, filter)

	if err := query.Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

// Count counts bills matching the filter
func (r *GormBillRepository) Count(ctx context.Context, filter billing.BillFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&billing.Bill{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a bill
func (r *GormBillRepository) Save(ctx context.Context, bill *billing.Bill) error {
	return r.db.WithContext(ctx).Save(bill).Error
}

// SaveWithLock saves a bill with optimistic locking on the aggregate version.
// Returns shared.ErrConcurrencyConflict when the row changed underneath.
func (r *GormBillRepository) SaveWithLock(ctx context.Context, bill *billing.Bill) error {
	result := r.db.WithContext(ctx).
		Model(bill).
		Where("id = ? AND version = ?", bill.ID, bill.Version-1).
		Select("*").
		Updates(bill)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// DeleteDraft removes a still-draft bill. Published bills are voided, never
// deleted, so the delete is guarded on status.
func (r *GormBillRepository) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, billing.BillStatusDraft).
		Delete(&billing.Bill{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GenerateBillNumber generates a unique bill number.
// Format: <prefix>-YYYYMM-XXXX, numbered per month and type.
func (r *GormBillRepository) GenerateBillNumber(ctx context.Context, billType billing.BillType) (string, error) {
	typePrefix, ok := billNumberPrefixes[billType]
	if !ok {
		return "", billing.NewValidationError("bill type is not valid")
	}
	prefix := fmt.Sprintf("%s-%s-", typePrefix, time.Now().Format("200601"))

	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&billing.Bill{}).
		Select("bill_number").
		Where("bill_number LIKE ?", prefix+"%").
		Order("bill_number DESC").
		Limit(1).
		Pluck("bill_number", &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%04d", prefix, nextNum), nil
}

func (r *GormBillRepository) applyFilter(query *gorm.DB, filter billing.BillFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, BillSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

func (r *GormBillRepository) applyFilterWithoutPagination(query *gorm.DB, filter billing.BillFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("bill_number ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.BillType != nil {
		query = query.Where("bill_type = ?", *filter.BillType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.RoomID != nil {
		query = query.Where("room_id = ?", *filter.RoomID)
	}
	if filter.Period != nil {
		query = query.Where("period = ?", *filter.Period)
	}
	if filter.FromDate != nil {
		query = query.Where("billing_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("billing_date <= ?", *filter.ToDate)
	}

	return query
}

// Ensure GormBillRepository implements BillRepository
var _ billing.BillRepository = (*GormBillRepository)(nil)
