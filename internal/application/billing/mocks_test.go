package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/leasing"
	"github.com/nhatro/backend/internal/domain/shared"
)

// MockBillRepository is a mock implementation of billing.BillRepository
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

// MockContractRepository is a mock implementation of leasing.ContractRepository
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

// MockRoomRepository is a mock implementation of leasing.RoomRepository
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

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
	Published []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	m.Published = append(m.Published, events...)
	return args.Error(0)
}

// MockPaymentGateway is a mock implementation of billing.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
	provider billing.GatewayProvider
}

func NewMockPaymentGateway(provider billing.GatewayProvider) *MockPaymentGateway {
	return &MockPaymentGateway{provider: provider}
}

func (m *MockPaymentGateway) Provider() billing.GatewayProvider {
	return m.provider
}

func (m *MockPaymentGateway) BuildPaymentURL(ctx context.Context, order *billing.PaymentOrder) (string, error) {
	args := m.Called(ctx, order)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentGateway) VerifyCallback(ctx context.Context, payload []byte) (*billing.PaymentEvent, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PaymentEvent), args.Error(1)
}

// MockIdempotencyStore is an in-memory IdempotencyStore for tests
type MockIdempotencyStore struct {
	seen map[string]time.Time
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{seen: make(map[string]time.Time)}
}

func (m *MockIdempotencyStore) SeenOrRecord(ctx context.Context, key string) (bool, error) {
	if _, ok := m.seen[key]; ok {
		return true, nil
	}
	m.seen[key] = time.Now()
	return false, nil
}

func (m *MockIdempotencyStore) Forget(ctx context.Context, key string) error {
	delete(m.seen, key)
	return nil
}
