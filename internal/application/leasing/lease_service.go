package leasing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/leasing"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// LeaseService drives the move-in and move-out lifecycle: check-in with
// its deposit receipt, contract creation and finalization, and the final
// deposit settlement at checkout.
type LeaseService struct {
	rooms          leasing.RoomRepository
	checkIns       leasing.CheckInRepository
	contracts      leasing.ContractRepository
	bills          billing.BillRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	// depositGrace is how long a pending check-in may wait for its deposit
	depositGrace time.Duration
}

// LeaseServiceConfig holds the service dependencies
type LeaseServiceConfig struct {
	Rooms          leasing.RoomRepository
	CheckIns       leasing.CheckInRepository
	Contracts      leasing.ContractRepository
	Bills          billing.BillRepository
	EventPublisher shared.EventPublisher
	Logger         *zap.Logger
	DepositGrace   time.Duration
}

// NewLeaseService creates a new LeaseService
func NewLeaseService(config LeaseServiceConfig) *LeaseService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	grace := config.DepositGrace
	if grace <= 0 {
		grace = 72 * time.Hour
	}
	return &LeaseService{
		rooms:          config.Rooms,
		checkIns:       config.CheckIns,
		contracts:      config.Contracts,
		bills:          config.Bills,
		eventPublisher: config.EventPublisher,
		logger:         logger,
		depositGrace:   grace,
	}
}

func (s *LeaseService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if len(events) == 0 || s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish lease events", zap.Error(err))
	}
}

// CheckInRequest starts a tenant's move-in
type CheckInRequest struct {
	RoomID     uuid.UUID
	Tenant     leasing.Tenant
	MoveInDate time.Time
}

// CheckInResult is the created check-in with its deposit receipt bill
type CheckInResult struct {
	CheckIn     *leasing.CheckIn `json:"check_in"`
	ReceiptBill *billing.Bill    `json:"receipt_bill"`
}

// CheckIn reserves a room for a tenant and issues the deposit receipt
// bill. The deposit must be paid within the grace window or the sweep
// releases the room.
func (s *LeaseService) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	room, err := s.rooms.FindByID(ctx, req.RoomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	if room == nil {
		return nil, shared.ErrNotFound
	}
	if room.Status == leasing.RoomStatusMaintenance {
		return nil, leasing.ErrRoomUnavailable
	}

	if active, err := s.contracts.FindActiveByRoom(ctx, req.RoomID); err != nil {
		return nil, fmt.Errorf("failed to check room contracts: %w", err)
	} else if active != nil {
		return nil, leasing.ErrRoomUnavailable
	}
	if pending, err := s.checkIns.FindPendingByRoom(ctx, req.RoomID); err != nil {
		return nil, fmt.Errorf("failed to check room reservations: %w", err)
	} else if pending != nil {
		return nil, leasing.ErrRoomUnavailable
	}

	checkIn, err := leasing.NewCheckIn(req.RoomID, req.Tenant, room.GetDepositAmountMoney(),
		req.MoveInDate, time.Now().Add(s.depositGrace))
	if err != nil {
		return nil, err
	}

	billNumber, err := s.bills.GenerateBillNumber(ctx, billing.BillTypeReceipt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate bill number: %w", err)
	}
	receiptBill, err := billing.NewBill(billing.BillTypeReceipt, req.RoomID, nil, billNumber, "", time.Now())
	if err != nil {
		return nil, err
	}
	depositItem, err := billing.NewLineItem(
		fmt.Sprintf("Deposit for room %s", room.Code),
		decimal.NewFromInt(1), room.DepositAmount)
	if err != nil {
		return nil, err
	}
	if err := receiptBill.Publish(billing.LineItems{depositItem}); err != nil {
		return nil, err
	}
	if err := checkIn.AttachReceiptBill(receiptBill.ID); err != nil {
		return nil, err
	}

	if err := s.bills.Save(ctx, receiptBill); err != nil {
		return nil, fmt.Errorf("failed to save receipt bill: %w", err)
	}
	if err := s.checkIns.Save(ctx, checkIn); err != nil {
		return nil, fmt.Errorf("failed to save check-in: %w", err)
	}

	room.ProjectStatus(false, true)
	if err := s.rooms.SaveWithLock(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	s.publish(ctx, checkIn.GetDomainEvents()...)
	s.publish(ctx, receiptBill.GetDomainEvents()...)
	s.publish(ctx, room.GetDomainEvents()...)
	checkIn.ClearDomainEvents()
	receiptBill.ClearDomainEvents()
	room.ClearDomainEvents()

	s.logger.Info("Check-in created",
		zap.String("check_in_id", checkIn.ID.String()),
		zap.String("room_code", room.Code),
		zap.String("deposit", room.DepositAmount.String()),
		zap.Time("deposit_due_at", checkIn.DepositDueAt))
	return &CheckInResult{CheckIn: checkIn, ReceiptBill: receiptBill}, nil
}

// CreateContract draws up the contract for a check-in whose deposit has
// been received. The receipt amount is carried into the contract's
// deposit total.
func (s *LeaseService) CreateContract(ctx context.Context, checkInID uuid.UUID, startDate time.Time) (*leasing.Contract, error) {
	checkIn, err := s.checkIns.FindByID(ctx, checkInID)
	if err != nil {
		return nil, fmt.Errorf("failed to load check-in: %w", err)
	}
	if checkIn == nil {
		return nil, shared.ErrNotFound
	}
	if checkIn.Status != leasing.CheckInStatusDepositPaid {
		return nil, leasing.NewInvalidStateTransitionError("create contract",
			checkIn.Status.String(), checkIn.Status.String())
	}
	if existing, err := s.contracts.FindByCheckIn(ctx, checkInID); err != nil {
		return nil, fmt.Errorf("failed to check existing contract: %w", err)
	} else if existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	room, err := s.rooms.FindByID(ctx, checkIn.RoomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	if room == nil {
		return nil, shared.ErrNotFound
	}

	contractNumber, err := s.contracts.GenerateContractNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate contract number: %w", err)
	}
	contract, err := leasing.NewContract(contractNumber, checkIn.RoomID, checkIn.ID,
		checkIn.Tenant, room.GetMonthlyRentMoney(), room.GetDepositAmountMoney(), startDate)
	if err != nil {
		return nil, err
	}

	paidAt := time.Now()
	if checkIn.DepositPaidAt != nil {
		paidAt = *checkIn.DepositPaidAt
	}
	if err := contract.RecordDepositPayment(checkIn.GetDepositAmountMoney(), paidAt); err != nil {
		return nil, err
	}

	if err := s.contracts.Save(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}
	if err := checkIn.AttachContract(contract.ID); err != nil {
		return nil, err
	}
	if err := s.checkIns.SaveWithLock(ctx, checkIn); err != nil {
		return nil, fmt.Errorf("failed to update check-in: %w", err)
	}

	s.publish(ctx, contract.GetDomainEvents()...)
	contract.ClearDomainEvents()
	return contract, nil
}

// GenerateContractBill issues the contract signing bill: first month's rent
// plus the deposit still owed, with any caller-supplied items appended as
// extra charges. At most one non-void contract bill may exist per contract.
func (s *LeaseService) GenerateContractBill(ctx context.Context, contractID uuid.UUID, extras billing.LineItems) (*billing.Bill, error) {
	contract, err := s.contracts.FindByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if contract == nil {
		return nil, shared.ErrNotFound
	}
	if !contract.IsActive() {
		return nil, leasing.NewInvalidStateTransitionError("generate contract bill",
			contract.Status.String(), contract.Status.String())
	}

	existing, err := s.bills.FindByContractAndType(ctx, contractID, billing.BillTypeContract)
	if err != nil {
		return nil, fmt.Errorf("failed to check contract bills: %w", err)
	}
	if existing != nil {
		return nil, billing.ErrDuplicateContractBill
	}

	billNumber, err := s.bills.GenerateBillNumber(ctx, billing.BillTypeContract)
	if err != nil {
		return nil, fmt.Errorf("failed to generate bill number: %w", err)
	}
	bill, err := billing.NewBill(billing.BillTypeContract, contract.RoomID, &contract.ID, billNumber, "", time.Now())
	if err != nil {
		return nil, err
	}

	items, err := contractBillLines(contract)
	if err != nil {
		return nil, err
	}
	items = append(items, extras...)

	if err := bill.Publish(items); err != nil {
		return nil, err
	}
	if err := s.bills.Save(ctx, bill); err != nil {
		return nil, fmt.Errorf("failed to save contract bill: %w", err)
	}

	s.publish(ctx, bill.GetDomainEvents()...)
	bill.ClearDomainEvents()

	s.logger.Info("Contract bill generated",
		zap.String("contract_id", contractID.String()),
		zap.String("bill_number", bill.BillNumber))
	return bill, nil
}

// contractBillLines builds the standard contract bill: one month of rent
// plus whatever part of the required deposit the receipt did not cover.
func contractBillLines(contract *leasing.Contract) (billing.LineItems, error) {
	rent, err := billing.NewLineItem("Tien phong thang dau", decimal.NewFromInt(1), contract.MonthlyRent)
	if err != nil {
		return nil, err
	}
	items := billing.LineItems{rent}

	remaining := contract.DepositRequired.Sub(contract.TotalDepositPaid)
	if remaining.IsPositive() {
		deposit, err := billing.NewLineItem("Tien coc con lai", decimal.NewFromInt(1), remaining)
		if err != nil {
			return nil, err
		}
		items = append(items, deposit)
	}
	return items, nil
}

// FinalizeContract unlocks monthly billing. The contract bill must be
// fully paid and the deposit fully covered first. Finalization completes
// the check-in and moves the room to OCCUPIED.
func (s *LeaseService) FinalizeContract(ctx context.Context, contractID uuid.UUID) (*leasing.Contract, error) {
	contract, err := s.contracts.FindByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if contract == nil {
		return nil, shared.ErrNotFound
	}

	contractBill, err := s.bills.FindByContractAndType(ctx, contractID, billing.BillTypeContract)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract bill: %w", err)
	}
	if contractBill == nil || !contractBill.IsPaid() {
		return nil, leasing.NewValidationError("contract bill must be paid before finalization")
	}
	if !contract.DepositCovered() {
		return nil, leasing.NewValidationError("deposit must be fully covered before finalization")
	}

	if err := contract.Finalize(time.Now()); err != nil {
		return nil, err
	}
	if err := s.contracts.SaveWithLock(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	checkIn, err := s.checkIns.FindByID(ctx, contract.CheckInID)
	if err == nil && checkIn != nil && checkIn.Status == leasing.CheckInStatusDepositPaid {
		if err := checkIn.Complete(); err != nil {
			s.logger.Warn("Failed to complete check-in after finalization",
				zap.String("check_in_id", checkIn.ID.String()), zap.Error(err))
		} else if err := s.checkIns.SaveWithLock(ctx, checkIn); err != nil {
			s.logger.Warn("Failed to save completed check-in", zap.Error(err))
		} else {
			s.publish(ctx, checkIn.GetDomainEvents()...)
			checkIn.ClearDomainEvents()
		}
	}

	if room, err := s.rooms.FindByID(ctx, contract.RoomID); err == nil && room != nil {
		room.ProjectStatus(true, false)
		if err := s.rooms.SaveWithLock(ctx, room); err != nil {
			s.logger.Warn("Failed to update room projection", zap.Error(err))
		} else {
			s.publish(ctx, room.GetDomainEvents()...)
			room.ClearDomainEvents()
		}
	}

	s.publish(ctx, contract.GetDomainEvents()...)
	contract.ClearDomainEvents()

	s.logger.Info("Contract finalized", zap.String("contract_id", contractID.String()))
	return contract, nil
}

// RefundDepositRequest carries the move-out settlement inputs
type RefundDepositRequest struct {
	ContractID    uuid.UUID
	FinalUsage    billing.UsageInput
	DamageCharges valueobject.Money
}

// RefundDepositResult is the signed settlement
type RefundDepositResult struct {
	Contract         *leasing.Contract     `json:"contract"`
	FinalMonthFees   *billing.FeeBreakdown `json:"final_month_fees"`
	RefundAmount     valueobject.Money     `json:"refund_amount"`
	TenantOwes       bool                  `json:"tenant_owes"`
	TotalDepositPaid valueobject.Money     `json:"total_deposit_paid"`
}

// RefundDeposit settles the deposit at move-out:
//
//	refund = totalDepositPaid - finalMonthServiceFees - damageCharges
//
// The final month's fees always exclude rent. A negative refund means the
// tenant owes the difference; the amount is reported signed, never
// clamped. The contract ends and the room returns to the pool.
func (s *LeaseService) RefundDeposit(ctx context.Context, req RefundDepositRequest) (*RefundDepositResult, error) {
	contract, err := s.contracts.FindByID(ctx, req.ContractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if contract == nil {
		return nil, shared.ErrNotFound
	}

	room, err := s.rooms.FindByID(ctx, contract.RoomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	if room == nil {
		return nil, shared.ErrNotFound
	}

	usage := req.FinalUsage
	usage.ExcludeRent = true
	fees, err := billing.CalculateMonthlyFees(contract.GetMonthlyRentMoney(), room.BillingTariff(), usage)
	if err != nil {
		return nil, err
	}

	damage := req.DamageCharges
	if damage.IsZero() {
		damage = valueobject.ZeroVND()
	}
	refund, err := contract.ComputeDepositRefund(fees.Total, damage)
	if err != nil {
		return nil, err
	}

	if err := contract.End(refund, time.Now()); err != nil {
		return nil, err
	}
	if err := s.contracts.SaveWithLock(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	room.ProjectStatus(false, false)
	if err := s.rooms.SaveWithLock(ctx, room); err != nil {
		s.logger.Warn("Failed to update room projection", zap.Error(err))
	} else {
		s.publish(ctx, room.GetDomainEvents()...)
		room.ClearDomainEvents()
	}

	s.publish(ctx, contract.GetDomainEvents()...)
	contract.ClearDomainEvents()

	s.logger.Info("Deposit settled at move-out",
		zap.String("contract_id", contract.ID.String()),
		zap.String("deposit_paid", contract.TotalDepositPaid.String()),
		zap.String("final_month_fees", fees.Total.String()),
		zap.String("refund", refund.String()))
	return &RefundDepositResult{
		Contract:         contract,
		FinalMonthFees:   fees,
		RefundAmount:     refund,
		TenantOwes:       refund.IsNegative(),
		TotalDepositPaid: contract.GetTotalDepositPaidMoney(),
	}, nil
}

// CancelCheckIn aborts a check-in. A paid deposit is forfeited in full;
// an unpaid receipt bill is voided so it stops accepting money.
func (s *LeaseService) CancelCheckIn(ctx context.Context, checkInID uuid.UUID, reason string) (*leasing.CheckIn, error) {
	checkIn, err := s.checkIns.FindByID(ctx, checkInID)
	if err != nil {
		return nil, fmt.Errorf("failed to load check-in: %w", err)
	}
	if checkIn == nil {
		return nil, shared.ErrNotFound
	}

	if err := checkIn.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.checkIns.SaveWithLock(ctx, checkIn); err != nil {
		return nil, fmt.Errorf("failed to save check-in: %w", err)
	}

	s.voidReceiptBill(ctx, checkIn, "check-in canceled: "+reason)
	s.releaseRoom(ctx, checkIn.RoomID)

	s.publish(ctx, checkIn.GetDomainEvents()...)
	checkIn.ClearDomainEvents()
	return checkIn, nil
}

// CancelContract aborts a contract before move-in. The full deposit is
// forfeited.
func (s *LeaseService) CancelContract(ctx context.Context, contractID uuid.UUID, reason string) (*leasing.Contract, error) {
	contract, err := s.contracts.FindByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if contract == nil {
		return nil, shared.ErrNotFound
	}

	if err := contract.Cancel(reason, time.Now()); err != nil {
		return nil, err
	}
	if err := s.contracts.SaveWithLock(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	// an open contract bill must not keep collecting money
	if bill, err := s.bills.FindByContractAndType(ctx, contractID, billing.BillTypeContract); err == nil && bill != nil && bill.Status.CanVoid() {
		if err := bill.Void("contract canceled: " + reason); err == nil {
			if err := s.bills.SaveWithLock(ctx, bill); err != nil {
				s.logger.Warn("Failed to void contract bill", zap.Error(err))
			}
		}
	}

	s.releaseRoom(ctx, contract.RoomID)

	s.publish(ctx, contract.GetDomainEvents()...)
	contract.ClearDomainEvents()

	s.logger.Info("Contract canceled, deposit forfeited",
		zap.String("contract_id", contractID.String()),
		zap.String("forfeited", contract.TotalDepositPaid.String()))
	return contract, nil
}

func (s *LeaseService) voidReceiptBill(ctx context.Context, checkIn *leasing.CheckIn, reason string) {
	if checkIn.ReceiptBillID == nil {
		return
	}
	bill, err := s.bills.FindByID(ctx, *checkIn.ReceiptBillID)
	if err != nil || bill == nil {
		return
	}
	if !bill.Status.CanVoid() {
		return
	}
	if err := bill.Void(reason); err != nil {
		return
	}
	if err := s.bills.SaveWithLock(ctx, bill); err != nil {
		s.logger.Warn("Failed to void receipt bill",
			zap.String("bill_id", bill.ID.String()), zap.Error(err))
	}
}

func (s *LeaseService) releaseRoom(ctx context.Context, roomID uuid.UUID) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil || room == nil {
		return
	}
	hasContract := false
	if active, err := s.contracts.FindActiveByRoom(ctx, roomID); err == nil && active != nil {
		hasContract = true
	}
	hasPending := false
	if pending, err := s.checkIns.FindPendingByRoom(ctx, roomID); err == nil && pending != nil {
		hasPending = true
	}
	room.ProjectStatus(hasContract, hasPending)
	if err := s.rooms.SaveWithLock(ctx, room); err != nil {
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			s.logger.Warn("Failed to update room projection", zap.Error(err))
		}
		return
	}
	s.publish(ctx, room.GetDomainEvents()...)
	room.ClearDomainEvents()
}

// GetCheckIn returns a check-in by ID
func (s *LeaseService) GetCheckIn(ctx context.Context, checkInID uuid.UUID) (*leasing.CheckIn, error) {
	checkIn, err := s.checkIns.FindByID(ctx, checkInID)
	if err != nil {
		return nil, err
	}
	if checkIn == nil {
		return nil, shared.ErrNotFound
	}
	return checkIn, nil
}

// ListCheckIns returns check-ins matching the filter with the total count
func (s *LeaseService) ListCheckIns(ctx context.Context, filter leasing.CheckInFilter) ([]leasing.CheckIn, int64, error) {
	checkIns, err := s.checkIns.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.checkIns.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return checkIns, total, nil
}

// GetContract returns a contract by ID
func (s *LeaseService) GetContract(ctx context.Context, contractID uuid.UUID) (*leasing.Contract, error) {
	contract, err := s.contracts.FindByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, shared.ErrNotFound
	}
	return contract, nil
}

// ListContracts returns contracts matching the filter with the total count
func (s *LeaseService) ListContracts(ctx context.Context, filter leasing.ContractFilter) ([]leasing.Contract, int64, error) {
	contracts, err := s.contracts.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.contracts.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return contracts, total, nil
}
