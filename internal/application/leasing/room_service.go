package leasing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/leasing"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// RoomService manages the room inventory. Occupancy status is a
// projection owned by the lease lifecycle; this service only touches the
// descriptive fields and the maintenance flag.
type RoomService struct {
	rooms  leasing.RoomRepository
	logger *zap.Logger
}

// NewRoomService creates a new RoomService
func NewRoomService(rooms leasing.RoomRepository, logger *zap.Logger) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{rooms: rooms, logger: logger}
}

// CreateRoomRequest carries the input for a new room
type CreateRoomRequest struct {
	Code          string
	Floor         int
	AreaM2        string
	MonthlyRent   valueobject.Money
	DepositAmount valueobject.Money
	MaxOccupants  int
	Tariff        *billing.Tariff
	Description   string
}

// CreateRoom adds a room to the inventory
func (s *RoomService) CreateRoom(ctx context.Context, req CreateRoomRequest) (*leasing.Room, error) {
	if existing, err := s.rooms.FindByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	room, err := leasing.NewRoom(req.Code, req.MonthlyRent, req.DepositAmount)
	if err != nil {
		return nil, err
	}
	if req.Floor > 0 {
		room.Floor = req.Floor
	}
	if req.MaxOccupants > 0 {
		room.MaxOccupants = req.MaxOccupants
	}
	if req.AreaM2 != "" {
		area, err := decimal.NewFromString(req.AreaM2)
		if err != nil || area.IsNegative() {
			return nil, leasing.NewValidationError("area must be a non-negative decimal")
		}
		room.AreaM2 = area
	}
	if req.Tariff != nil {
		room.Tariff = &leasing.RoomTariff{Tariff: *req.Tariff}
	}
	room.Description = req.Description

	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}

	s.logger.Info("Room created",
		zap.String("room_id", room.ID.String()),
		zap.String("code", room.Code))
	return room, nil
}

// GetRoom returns a room by ID
func (s *RoomService) GetRoom(ctx context.Context, roomID uuid.UUID) (*leasing.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, shared.ErrNotFound
	}
	return room, nil
}

// ListRooms returns rooms matching the filter with the total count
func (s *RoomService) ListRooms(ctx context.Context, filter leasing.RoomFilter) ([]leasing.Room, int64, error) {
	rooms, err := s.rooms.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.rooms.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return rooms, total, nil
}

// UpdateRoomRequest carries the mutable room fields. Nil fields are left
// untouched.
type UpdateRoomRequest struct {
	MonthlyRent   *valueobject.Money
	DepositAmount *valueobject.Money
	MaxOccupants  *int
	Tariff        *billing.Tariff
	Description   *string
}

// UpdateRoom changes a room's descriptive fields. Running contracts keep
// the terms they were signed at.
func (s *RoomService) UpdateRoom(ctx context.Context, roomID uuid.UUID, req UpdateRoomRequest) (*leasing.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, shared.ErrNotFound
	}

	if req.MonthlyRent != nil {
		if err := room.UpdateRent(*req.MonthlyRent); err != nil {
			return nil, err
		}
	}
	if req.DepositAmount != nil {
		if req.DepositAmount.IsNegative() {
			return nil, leasing.NewValidationError("deposit amount cannot be negative")
		}
		room.DepositAmount = req.DepositAmount.Amount()
		room.IncrementVersion()
	}
	if req.MaxOccupants != nil {
		if *req.MaxOccupants <= 0 {
			return nil, leasing.NewValidationError("max occupants must be positive")
		}
		room.MaxOccupants = *req.MaxOccupants
		room.IncrementVersion()
	}
	if req.Tariff != nil {
		room.Tariff = &leasing.RoomTariff{Tariff: *req.Tariff}
		room.IncrementVersion()
	}
	if req.Description != nil {
		room.Description = *req.Description
	}

	if err := s.rooms.SaveWithLock(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}
	return room, nil
}

// SetMaintenance takes an available room out of circulation
func (s *RoomService) SetMaintenance(ctx context.Context, roomID uuid.UUID) (*leasing.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, shared.ErrNotFound
	}
	if err := room.SetMaintenance(); err != nil {
		return nil, err
	}
	if err := s.rooms.SaveWithLock(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}
	return room, nil
}

// ClearMaintenance returns a maintenance room to the available pool
func (s *RoomService) ClearMaintenance(ctx context.Context, roomID uuid.UUID) (*leasing.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, shared.ErrNotFound
	}
	if err := room.ClearMaintenance(); err != nil {
		return nil, err
	}
	if err := s.rooms.SaveWithLock(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}
	return room, nil
}

// DeleteRoom removes a room that is not occupied or reserved
func (s *RoomService) DeleteRoom(ctx context.Context, roomID uuid.UUID) error {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return shared.ErrNotFound
	}
	if room.Status == leasing.RoomStatusOccupied || room.Status == leasing.RoomStatusDeposited {
		return leasing.NewInvalidStateTransitionError("delete room", room.Status.String(), "deleted")
	}
	if err := s.rooms.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	s.logger.Info("Room deleted", zap.String("room_id", roomID.String()))
	return nil
}
