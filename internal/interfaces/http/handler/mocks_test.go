package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/leasing"
	"github.com/nhatro/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockBillRepository implements billing.BillRepository for testing
type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Bill), args.Error(1)
}

func (m *MockBillRepository) FindByNumber(ctx context.Context, billNumber string) (*billing.Bill, error) {
	args := m.Called(ctx, billNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Bill), args.Error(1)
}

func (m *MockBillRepository) FindByContract(ctx context.Context, contractID uuid.UUID, filter billing.BillFilter) ([]billing.Bill, error) {
	args := m.Called(ctx, contractID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Bill), args.Error(1)
}

func (m *MockBillRepository) FindByContractAndType(ctx context.Context, contractID uuid.UUID, billType billing.BillType) (*billing.Bill, error) {
	args := m.Called(ctx, contractID, billType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Bill), args.Error(1)
}

func (m *MockBillRepository) FindMonthlyByPeriod(ctx context.Context, contractID uuid.UUID, period string) (*billing.Bill, error) {
	args := m.Called(ctx, contractID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Bill), args.Error(1)
}

func (m *MockBillRepository) FindAll(ctx context.Context, filter billing.BillFilter) ([]billing.Bill, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Bill), args.Error(1)
}

func (m *MockBillRepository) Count(ctx context.Context, filter billing.BillFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBillRepository) Save(ctx context.Context, bill *billing.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) SaveWithLock(ctx context.Context, bill *billing.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBillRepository) GenerateBillNumber(ctx context.Context, billType billing.BillType) (string, error) {
	args := m.Called(ctx, billType)
	return args.String(0), args.Error(1)
}

// MockRoomRepository implements leasing.RoomRepository for testing
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leasing.Room), args.Error(1)
}

func (m *MockRoomRepository) FindByCode(ctx context.Context, code string) (*leasing.Room, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leasing.Room), args.Error(1)
}

func (m *MockRoomRepository) FindAll(ctx context.Context, filter leasing.RoomFilter) ([]leasing.Room, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]leasing.Room), args.Error(1)
}

func (m *MockRoomRepository) Count(ctx context.Context, filter leasing.RoomFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomRepository) Save(ctx context.Context, room *leasing.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) SaveWithLock(ctx context.Context, room *leasing.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCheckInRepository implements leasing.CheckInRepository for testing
type MockCheckInRepository struct {
	mock.Mock
}

func (m *MockCheckInRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.CheckIn, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leasing.CheckIn), args.Error(1)
}

func (m *MockCheckInRepository) FindPendingByRoom(ctx context.Context, roomID uuid.UUID) (*leasing.CheckIn, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leasing.CheckIn), args.Error(1)
}

func (m *MockCheckInRepository) FindByReceiptBill(ctx context.Context, billID uuid.UUID) (*leasing.CheckIn, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leasing.CheckIn), args.Error(1)
}

func (m *MockCheckInRepository) FindPendingDepositDueBefore(ctx context.Context, deadline time.Time) ([]leasing.CheckIn, error) {
	args := m.Called(ctx, deadline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]leasing.CheckIn), args.Error(1)
}

func (m *MockCheckInRepository) FindAll(ctx context.Context, filter leasing.CheckInFilter) ([]leasing.CheckIn, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]leasing.CheckIn), args.Error(1)
}

func (m *MockCheckInRepository) Count(ctx context.Context, filter leasing.CheckInFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCheckInRepository) Save(ctx context.Context, checkIn *leasing.CheckIn) error {
	args := m.Called(ctx, checkIn)
	return args.Error(0)
}

func (m *MockCheckInRepository) SaveWithLock(ctx context.Context, checkIn *leasing.CheckIn) error {
	args := m.Called(ctx, checkIn)
	return args.Error(0)
}

// MockContractRepository implements leasing.ContractRepository for testing
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leasing.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByNumber(ctx context.Context, contractNumber string) (*leasing.Contract, error) {
	args := m.Called(ctx, contractNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leasing.Contract), args.Error(1)
}

func (m *MockContractRepository) FindActiveByRoom(ctx context.Context, roomID uuid.UUID) (*leasing.Contract, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leasing.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByCheckIn(ctx context.Context, checkInID uuid.UUID) (*leasing.Contract, error) {
	args := m.Called(ctx, checkInID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leasing.Contract), args.Error(1)
}

func (m *MockContractRepository) FindAll(ctx context.Context, filter leasing.ContractFilter) ([]leasing.Contract, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]leasing.Contract), args.Error(1)
}

func (m *MockContractRepository) Count(ctx context.Context, filter leasing.ContractFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContractRepository) Save(ctx context.Context, contract *leasing.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

func (m *MockContractRepository) SaveWithLock(ctx context.Context, contract *leasing.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

func (m *MockContractRepository) GenerateContractNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
