package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nhatro/backend/internal/domain/leasing"
	"github.com/nhatro/backend/internal/domain/shared"
)

// GormContractRepository implements leasing.ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract by its ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Contract, error) {
	var contract leasing.Contract
	if err := r.db.WithContext(ctx).First(&contract, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contract, nil
}

// FindByNumber finds a contract by its unique contract number
func (r *GormContractRepository) FindByNumber(ctx context.Context, contractNumber string) (*leasing.Contract, error) {
	var contract leasing.Contract
	if err := r.db.WithContext(ctx).
		Where("contract_number = ?", contractNumber).
		First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contract, nil
}

// FindActiveByRoom returns the room's running contract, if any
func (r *GormContractRepository) FindActiveByRoom(ctx context.Context, roomID uuid.UUID) (*leasing.Contract, error) {
	var contract leasing.Contract
	if err := r.db.WithContext(ctx).
		Where("room_id = ? AND status = ?", roomID, leasing.ContractStatusActive).
		Order("created_at DESC").
		First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contract, nil
}

// FindByCheckIn finds the contract created from a check-in
func (r *GormContractRepository) FindByCheckIn(ctx context.Context, checkInID uuid.UUID) (*leasing.Contract, error) {
	var contract leasing.Contract
	if err := r.db.WithContext(ctx).
		Where("check_in_id = ?", checkInID).
		First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contract, nil
}

// FindAll finds contracts matching the filter
func (r *GormContractRepository) FindAll(ctx context.Context, filter leasing.ContractFilter) ([]leasing.Contract, error) {
	var contracts []leasing.Contract
	query := r.db.WithContext(ctx).Model(&leasing.Contract{})
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, ContractSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// Count counts contracts matching the filter
func (r *GormContractRepository) Count(ctx context.Context, filter leasing.ContractFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&leasing.Contract{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a contract
func (r *GormContractRepository) Save(ctx context.Context, contract *leasing.Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

// SaveWithLock saves a contract with optimistic locking on the aggregate version
func (r *GormContractRepository) SaveWithLock(ctx context.Context, contract *leasing.Contract) error {
	result := r.db.WithContext(ctx).
		Model(contract).
		Where("id = ? AND version = ?", contract.ID, contract.Version-1).
		Select("*").
		Updates(contract)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// GenerateContractNumber generates a unique contract number.
// Format: HDT-YYYYMM-XXXX, numbered per month.
func (r *GormContractRepository) GenerateContractNumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("HDT-%s-", time.Now().Format("200601"))

	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&leasing.Contract{}).
		Select("contract_number").
		Where("contract_number LIKE ?", prefix+"%").
		Order("contract_number DESC").
		Limit(1).
		Pluck("contract_number", &maxNumber).Error; err != nil {
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

func (r *GormContractRepository) applyFilterWithoutPagination(query *gorm.DB, filter leasing.ContractFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("contract_number ILIKE ? OR tenant_full_name ILIKE ?", searchPattern, searchPattern)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.RoomID != nil {
		query = query.Where("room_id = ?", *filter.RoomID)
	}
	return query
}

// Ensure GormContractRepository implements ContractRepository
var _ leasing.ContractRepository = (*GormContractRepository)(nil)
