package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nhatro/backend/internal/domain/leasing"
	"github.com/nhatro/backend/internal/domain/shared"
)

// GormRoomRepository implements leasing.RoomRepository using GORM
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GormRoomRepository
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// FindByID finds a room by its ID
func (r *GormRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Room, error) {
	var room leasing.Room
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// FindByCode finds a room by its unique code
func (r *GormRoomRepository) FindByCode(ctx context.Context, code string) (*leasing.Room, error) {
	var room leasing.Room
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// FindAll finds rooms matching the filter
func (r *GormRoomRepository) FindAll(ctx context.Context, filter leasing.RoomFilter) ([]leasing.Room, error) {
	var rooms []leasing.Room
	query := r.db.WithContext(ctx).Model(&leasing.Room{})
	query = r.applyFilter(query, filter)

	if err := query.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// Count counts rooms matching the filter
func (r *GormRoomRepository) Count(ctx context.Context, filter leasing.RoomFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&leasing.Room{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a room
func (r *GormRoomRepository) Save(ctx context.Context, room *leasing.Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// SaveWithLock saves a room with optimistic locking on the aggregate version
func (r *GormRoomRepository) SaveWithLock(ctx context.Context, room *leasing.Room) error {
	result := r.db.WithContext(ctx).
		Model(room).
		Where("id = ? AND version = ?", room.ID, room.Version-1).
		Select("*").
		Updates(room)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes a room
func (r *GormRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&leasing.Room{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormRoomRepository) applyFilter(query *gorm.DB, filter leasing.RoomFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, RoomSortFields, "code")
	orderDir := "ASC"
	if filter.OrderBy != "" {
		orderDir = ValidateSortOrder(filter.OrderDir)
	}
	query = query.Order(orderBy + " " + orderDir)

	return query
}

func (r *GormRoomRepository) applyFilterWithoutPagination(query *gorm.DB, filter leasing.RoomFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("code ILIKE ? OR description ILIKE ?", searchPattern, searchPattern)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Floor != nil {
		query = query.Where("floor = ?", *filter.Floor)
	}

	return query
}

// Ensure GormRoomRepository implements RoomRepository
var _ leasing.RoomRepository = (*GormRoomRepository)(nil)
