package leasing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/leasing"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

type leaseServiceFixture struct {
	rooms     *MockRoomRepository
	checkIns  *MockCheckInRepository
	contracts *MockContractRepository
	bills     *MockBillRepository
	publisher *MockEventPublisher
	svc       *LeaseService
}

func newLeaseServiceFixture() *leaseServiceFixture {
	f := &leaseServiceFixture{
		rooms:     &MockRoomRepository{},
		checkIns:  &MockCheckInRepository{},
		contracts: &MockContractRepository{},
		bills:     &MockBillRepository{},
		publisher: &MockEventPublisher{},
	}
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.svc = NewLeaseService(LeaseServiceConfig{
		Rooms:          f.rooms,
		CheckIns:       f.checkIns,
		Contracts:      f.contracts,
		Bills:          f.bills,
		EventPublisher: f.publisher,
		DepositGrace:   72 * time.Hour,
	})
	return f
}

func availableRoom(t *testing.T) *leasing.Room {
	t.Helper()
	room, err := leasing.NewRoom("P101",
		valueobject.NewMoneyVNDFromInt(3500000),
		valueobject.NewMoneyVNDFromInt(7000000))
	require.NoError(t, err)
	return room
}

func testTenant() leasing.Tenant {
	return leasing.Tenant{FullName: "Nguyen Van A", Phone: "0901234567", Email: "a@example.com"}
}

func depositPaidCheckIn(t *testing.T, roomID uuid.UUID) *leasing.CheckIn {
	t.Helper()
	checkIn, err := leasing.NewCheckIn(roomID, testTenant(),
		valueobject.NewMoneyVNDFromInt(7000000),
		time.Now().Add(24*time.Hour), time.Now().Add(72*time.Hour))
	require.NoError(t, err)
	require.NoError(t, checkIn.MarkDepositPaid(time.Now()))
	checkIn.ClearDomainEvents()
	return checkIn
}

func paidContractBill(t *testing.T, contractID uuid.UUID) *billing.Bill {
	t.Helper()
	bill, err := billing.NewBill(billing.BillTypeContract, uuid.New(), &contractID, "CB-1", "", time.Now())
	require.NoError(t, err)
	item, err := billing.NewLineItem("Remaining deposit", decimal.NewFromInt(1), decimal.NewFromInt(3500000))
	require.NoError(t, err)
	require.NoError(t, bill.Publish(billing.LineItems{item}))
	require.NoError(t, bill.ApplyGatewayPayment("momo", "MM-1",
		valueobject.NewMoneyVNDFromInt(3500000), valueobject.NewMoneyVNDFromInt(1)))
	bill.ClearDomainEvents()
	return bill
}

func TestLeaseService_CheckIn(t *testing.T) {
	t.Run("reserves room and issues receipt bill", func(t *testing.T) {
		f := newLeaseServiceFixture()
		room := availableRoom(t)

		f.rooms.On("FindByID", mock.Anything, room.ID).Return(room, nil)
		f.contracts.On("FindActiveByRoom", mock.Anything, room.ID).Return(nil, nil)
		f.checkIns.On("FindPendingByRoom", mock.Anything, room.ID).Return(nil, nil)
		f.bills.On("GenerateBillNumber", mock.Anything, billing.BillTypeReceipt).Return("BN-1", nil)
		f.bills.On("Save", mock.Anything, mock.AnythingOfType("*billing.Bill")).Return(nil)
		f.checkIns.On("Save", mock.Anything, mock.AnythingOfType("*leasing.CheckIn")).Return(nil)
		f.rooms.On("SaveWithLock", mock.Anything, room).Return(nil)

		result, err := f.svc.CheckIn(context.Background(), CheckInRequest{
			RoomID:     room.ID,
			Tenant:     testTenant(),
			MoveInDate: time.Now().Add(24 * time.Hour),
		})
		require.NoError(t, err)

		assert.Equal(t, leasing.CheckInStatusPending, result.CheckIn.Status)
		require.NotNil(t, result.CheckIn.ReceiptBillID)
		assert.Equal(t, result.ReceiptBill.ID, *result.CheckIn.ReceiptBillID)
		assert.Equal(t, billing.BillStatusUnpaid, result.ReceiptBill.Status)
		assert.True(t, result.ReceiptBill.AmountDue.Equal(room.DepositAmount))
		assert.Equal(t, leasing.RoomStatusDeposited, room.Status)
	})

	t.Run("occupied room rejects check-in", func(t *testing.T) {
		f := newLeaseServiceFixture()
		room := availableRoom(t)
		active, err := leasing.NewContract("CT-X", room.ID, uuid.New(), testTenant(),
			valueobject.NewMoneyVNDFromInt(1), valueobject.NewMoneyVNDFromInt(1), time.Now())
		require.NoError(t, err)

		f.rooms.On("FindByID", mock.Anything, room.ID).Return(room, nil)
		f.contracts.On("FindActiveByRoom", mock.Anything, room.ID).Return(active, nil)

		_, err = f.svc.CheckIn(context.Background(), CheckInRequest{
			RoomID: room.ID, Tenant: testTenant(), MoveInDate: time.Now(),
		})
		assert.ErrorIs(t, err, leasing.ErrRoomUnavailable)
		f.bills.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("reserved room rejects second check-in", func(t *testing.T) {
		f := newLeaseServiceFixture()
		room := availableRoom(t)
		holding := depositPaidCheckIn(t, room.ID)

		f.rooms.On("FindByID", mock.Anything, room.ID).Return(room, nil)
		f.contracts.On("FindActiveByRoom", mock.Anything, room.ID).Return(nil, nil)
		f.checkIns.On("FindPendingByRoom", mock.Anything, room.ID).Return(holding, nil)

		_, err := f.svc.CheckIn(context.Background(), CheckInRequest{
			RoomID: room.ID, Tenant: testTenant(), MoveInDate: time.Now(),
		})
		assert.ErrorIs(t, err, leasing.ErrRoomUnavailable)
	})
}

func TestLeaseService_CreateContract(t *testing.T) {
	f := newLeaseServiceFixture()
	room := availableRoom(t)
	checkIn := depositPaidCheckIn(t, room.ID)

	f.checkIns.On("FindByID", mock.Anything, checkIn.ID).Return(checkIn, nil)
	f.contracts.On("FindByCheckIn", mock.Anything, checkIn.ID).Return(nil, nil)
	f.rooms.On("FindByID", mock.Anything, room.ID).Return(room, nil)
	f.contracts.On("GenerateContractNumber", mock.Anything).Return("CT-20260801-00001", nil)
	f.contracts.On("Save", mock.Anything, mock.AnythingOfType("*leasing.Contract")).Return(nil)
	f.checkIns.On("SaveWithLock", mock.Anything, checkIn).Return(nil)

	contract, err := f.svc.CreateContract(context.Background(), checkIn.ID, time.Now())
	require.NoError(t, err)

	// the receipt deposit carries over into the contract ledger
	assert.True(t, contract.TotalDepositPaid.Equal(checkIn.DepositAmount))
	assert.False(t, contract.Finalized)
	require.NotNil(t, checkIn.ContractID)
	assert.Equal(t, contract.ID, *checkIn.ContractID)
}

func TestLeaseService_GenerateContractBill(t *testing.T) {
	extras := func(t *testing.T) billing.LineItems {
		item, err := billing.NewLineItem("Phi don phong", decimal.NewFromInt(1), decimal.NewFromInt(200000))
		require.NoError(t, err)
		return billing.LineItems{item}
	}

	t.Run("composes rent plus remaining deposit plus extras", func(t *testing.T) {
		f := newLeaseServiceFixture()
		contract, err := leasing.NewContract("CT-1", uuid.New(), uuid.New(), testTenant(),
			valueobject.NewMoneyVNDFromInt(3500000), valueobject.NewMoneyVNDFromInt(7000000), time.Now())
		require.NoError(t, err)
		// the receipt covered half the deposit; the bill collects the rest
		require.NoError(t, contract.RecordDepositPayment(valueobject.NewMoneyVNDFromInt(3500000), time.Now()))
		contract.ClearDomainEvents()

		f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
		f.bills.On("FindByContractAndType", mock.Anything, contract.ID, billing.BillTypeContract).Return(nil, nil)
		f.bills.On("GenerateBillNumber", mock.Anything, billing.BillTypeContract).Return("CB-1", nil)
		f.bills.On("Save", mock.Anything, mock.AnythingOfType("*billing.Bill")).Return(nil)

		bill, err := f.svc.GenerateContractBill(context.Background(), contract.ID, extras(t))
		require.NoError(t, err)
		assert.Equal(t, billing.BillTypeContract, bill.BillType)
		assert.Equal(t, billing.BillStatusUnpaid, bill.Status)

		// 3,500,000 rent + 3,500,000 remaining deposit + 200,000 extra
		require.Len(t, bill.LineItems, 3)
		assert.True(t, bill.AmountDue.Equal(decimal.NewFromInt(7200000)),
			"amount due %s", bill.AmountDue)
	})

	t.Run("fully deposited contract bills rent only", func(t *testing.T) {
		f := newLeaseServiceFixture()
		contract, err := leasing.NewContract("CT-1B", uuid.New(), uuid.New(), testTenant(),
			valueobject.NewMoneyVNDFromInt(3500000), valueobject.NewMoneyVNDFromInt(7000000), time.Now())
		require.NoError(t, err)
		require.NoError(t, contract.RecordDepositPayment(valueobject.NewMoneyVNDFromInt(7000000), time.Now()))
		contract.ClearDomainEvents()

		f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
		f.bills.On("FindByContractAndType", mock.Anything, contract.ID, billing.BillTypeContract).Return(nil, nil)
		f.bills.On("GenerateBillNumber", mock.Anything, billing.BillTypeContract).Return("CB-2", nil)
		f.bills.On("Save", mock.Anything, mock.AnythingOfType("*billing.Bill")).Return(nil)

		bill, err := f.svc.GenerateContractBill(context.Background(), contract.ID, nil)
		require.NoError(t, err)
		require.Len(t, bill.LineItems, 1)
		assert.True(t, bill.AmountDue.Equal(decimal.NewFromInt(3500000)))
	})

	t.Run("second contract bill is a duplicate", func(t *testing.T) {
		f := newLeaseServiceFixture()
		contract, err := leasing.NewContract("CT-2", uuid.New(), uuid.New(), testTenant(),
			valueobject.NewMoneyVNDFromInt(3500000), valueobject.NewMoneyVNDFromInt(7000000), time.Now())
		require.NoError(t, err)
		existing := paidContractBill(t, contract.ID)

		f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
		f.bills.On("FindByContractAndType", mock.Anything, contract.ID, billing.BillTypeContract).Return(existing, nil)

		_, err = f.svc.GenerateContractBill(context.Background(), contract.ID, extras(t))
		assert.ErrorIs(t, err, billing.ErrDuplicateContractBill)
		f.bills.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestLeaseService_FinalizeContract(t *testing.T) {
	t.Run("requires paid contract bill", func(t *testing.T) {
		f := newLeaseServiceFixture()
		contract, err := leasing.NewContract("CT-3", uuid.New(), uuid.New(), testTenant(),
			valueobject.NewMoneyVNDFromInt(1), valueobject.NewMoneyVNDFromInt(1), time.Now())
		require.NoError(t, err)

		f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
		f.bills.On("FindByContractAndType", mock.Anything, contract.ID, billing.BillTypeContract).Return(nil, nil)

		_, err = f.svc.FinalizeContract(context.Background(), contract.ID)
		assert.Error(t, err)
		assert.False(t, contract.Finalized)
	})

	t.Run("requires fully covered deposit", func(t *testing.T) {
		f := newLeaseServiceFixture()
		contract, err := leasing.NewContract("CT-6", uuid.New(), uuid.New(), testTenant(),
			valueobject.NewMoneyVNDFromInt(3500000), valueobject.NewMoneyVNDFromInt(7000000), time.Now())
		require.NoError(t, err)
		// the receipt covered half; the remainder was never collected
		require.NoError(t, contract.RecordDepositPayment(valueobject.NewMoneyVNDFromInt(3500000), time.Now()))
		contract.ClearDomainEvents()

		f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
		f.bills.On("FindByContractAndType", mock.Anything, contract.ID, billing.BillTypeContract).
			Return(paidContractBill(t, contract.ID), nil)

		_, err = f.svc.FinalizeContract(context.Background(), contract.ID)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "deposit must be fully covered")
		assert.False(t, contract.Finalized)
		f.contracts.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("finalizes and completes check-in", func(t *testing.T) {
		f := newLeaseServiceFixture()
		room := availableRoom(t)
		checkIn := depositPaidCheckIn(t, room.ID)
		contract, err := leasing.NewContract("CT-4", room.ID, checkIn.ID, testTenant(),
			valueobject.NewMoneyVNDFromInt(3500000), valueobject.NewMoneyVNDFromInt(7000000), time.Now())
		require.NoError(t, err)
		require.NoError(t, contract.RecordDepositPayment(valueobject.NewMoneyVNDFromInt(7000000), time.Now()))
		contract.ClearDomainEvents()

		f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
		f.bills.On("FindByContractAndType", mock.Anything, contract.ID, billing.BillTypeContract).
			Return(paidContractBill(t, contract.ID), nil)
		f.contracts.On("SaveWithLock", mock.Anything, contract).Return(nil)
		f.checkIns.On("FindByID", mock.Anything, checkIn.ID).Return(checkIn, nil)
		f.checkIns.On("SaveWithLock", mock.Anything, checkIn).Return(nil)
		f.rooms.On("FindByID", mock.Anything, room.ID).Return(room, nil)
		f.rooms.On("SaveWithLock", mock.Anything, room).Return(nil)

		finalized, err := f.svc.FinalizeContract(context.Background(), contract.ID)
		require.NoError(t, err)
		assert.True(t, finalized.CanGenerateMonthlyBills())
		assert.Equal(t, leasing.CheckInStatusCompleted, checkIn.Status)
		assert.Equal(t, leasing.RoomStatusOccupied, room.Status)
	})
}

func TestLeaseService_RefundDeposit(t *testing.T) {
	setup := func(t *testing.T, depositPaid int64) (*leaseServiceFixture, *leasing.Contract, *leasing.Room) {
		f := newLeaseServiceFixture()
		room := availableRoom(t)
		contract, err := leasing.NewContract("CT-5", room.ID, uuid.New(), testTenant(),
			valueobject.NewMoneyVNDFromInt(3500000), valueobject.NewMoneyVNDFromInt(depositPaid), time.Now())
		require.NoError(t, err)
		require.NoError(t, contract.RecordDepositPayment(valueobject.NewMoneyVNDFromInt(depositPaid), time.Now()))
		require.NoError(t, contract.Finalize(time.Now()))
		contract.ClearDomainEvents()

		f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
		f.rooms.On("FindByID", mock.Anything, room.ID).Return(room, nil)
		f.contracts.On("SaveWithLock", mock.Anything, contract).Return(nil)
		f.rooms.On("SaveWithLock", mock.Anything, room).Return(nil)
		return f, contract, room
	}

	t.Run("final month fees exclude rent", func(t *testing.T) {
		f, contract, _ := setup(t, 7000000)

		// water for two occupants at the default 100000 rate, nothing else
		result, err := f.svc.RefundDeposit(context.Background(), RefundDepositRequest{
			ContractID: contract.ID,
			FinalUsage: billing.UsageInput{OccupantCount: 2},
		})
		require.NoError(t, err)
		assert.True(t, result.FinalMonthFees.Rent.IsZero())
		assert.True(t, result.RefundAmount.Amount().Equal(decimal.NewFromInt(6800000)))
		assert.False(t, result.TenantOwes)
		assert.Equal(t, leasing.ContractStatusEnded, contract.Status)
	})

	t.Run("negative refund is reported signed", func(t *testing.T) {
		f, contract, _ := setup(t, 100000)

		result, err := f.svc.RefundDeposit(context.Background(), RefundDepositRequest{
			ContractID:    contract.ID,
			FinalUsage:    billing.UsageInput{OccupantCount: 2},
			DamageCharges: valueobject.NewMoneyVNDFromInt(500000),
		})
		require.NoError(t, err)
		assert.True(t, result.TenantOwes)
		assert.True(t, result.RefundAmount.Amount().Equal(decimal.NewFromInt(-600000)))
	})
}

func TestLeaseService_CancelCheckIn(t *testing.T) {
	f := newLeaseServiceFixture()
	room := availableRoom(t)
	checkIn := depositPaidCheckIn(t, room.ID)
	receiptID := uuid.New()
	checkIn.ReceiptBillID = &receiptID

	f.checkIns.On("FindByID", mock.Anything, checkIn.ID).Return(checkIn, nil)
	f.checkIns.On("SaveWithLock", mock.Anything, checkIn).Return(nil)
	f.bills.On("FindByID", mock.Anything, receiptID).Return(nil, nil)
	f.rooms.On("FindByID", mock.Anything, room.ID).Return(room, nil)
	f.contracts.On("FindActiveByRoom", mock.Anything, room.ID).Return(nil, nil)
	f.checkIns.On("FindPendingByRoom", mock.Anything, room.ID).Return(nil, nil)
	f.rooms.On("SaveWithLock", mock.Anything, room).Return(nil)

	canceled, err := f.svc.CancelCheckIn(context.Background(), checkIn.ID, "tenant backed out")
	require.NoError(t, err)
	assert.Equal(t, leasing.CheckInStatusCanceled, canceled.Status)
}

func TestLeaseService_CancelContract_ForfeitsDeposit(t *testing.T) {
	f := newLeaseServiceFixture()
	room := availableRoom(t)
	contract, err := leasing.NewContract("CT-6", room.ID, uuid.New(), testTenant(),
		valueobject.NewMoneyVNDFromInt(3500000), valueobject.NewMoneyVNDFromInt(7000000), time.Now())
	require.NoError(t, err)
	require.NoError(t, contract.RecordDepositPayment(valueobject.NewMoneyVNDFromInt(7000000), time.Now()))
	contract.ClearDomainEvents()

	f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
	f.contracts.On("SaveWithLock", mock.Anything, contract).Return(nil)
	f.bills.On("FindByContractAndType", mock.Anything, contract.ID, billing.BillTypeContract).Return(nil, nil)
	f.rooms.On("FindByID", mock.Anything, room.ID).Return(room, nil)
	f.contracts.On("FindActiveByRoom", mock.Anything, room.ID).Return(nil, nil)
	f.checkIns.On("FindPendingByRoom", mock.Anything, room.ID).Return(nil, nil)
	f.rooms.On("SaveWithLock", mock.Anything, room).Return(nil)

	canceled, err := f.svc.CancelContract(context.Background(), contract.ID, "no-show")
	require.NoError(t, err)
	assert.Equal(t, leasing.ContractStatusCanceled, canceled.Status)
	require.NotNil(t, canceled.RefundAmount)
	assert.True(t, canceled.RefundAmount.IsZero(), "forfeiture refunds nothing")
}
