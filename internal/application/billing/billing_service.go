package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/leasing"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// saveRetries bounds the reload-and-reapply loop on optimistic lock conflicts
const saveRetries = 3

// BillingService drives the bill lifecycle: drafting, publishing, cash
// claims, voiding and monthly generation. Every mutation goes through the
// aggregate's own guards and is persisted with optimistic locking, so
// concurrent writers to the same bill serialize instead of clobbering
// each other.
type BillingService struct {
	bills          billing.BillRepository
	contracts      leasing.ContractRepository
	rooms          leasing.RoomRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	cashEpsilon    valueobject.Money
}

// BillingServiceConfig holds the service dependencies
type BillingServiceConfig struct {
	Bills          billing.BillRepository
	Contracts      leasing.ContractRepository
	Rooms          leasing.RoomRepository
	EventPublisher shared.EventPublisher
	Logger         *zap.Logger
	// CashEpsilon is the rounding tolerance accepted on cash claims
	CashEpsilon valueobject.Money
}

// NewBillingService creates a new BillingService
func NewBillingService(config BillingServiceConfig) *BillingService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	epsilon := config.CashEpsilon
	if epsilon.IsZero() {
		epsilon = valueobject.NewMoneyVNDFromInt(1)
	}
	return &BillingService{
		bills:          config.Bills,
		contracts:      config.Contracts,
		rooms:          config.Rooms,
		eventPublisher: config.EventPublisher,
		logger:         logger,
		cashEpsilon:    epsilon,
	}
}

// mutateBill loads the bill, applies fn and saves with optimistic locking.
// A concurrency conflict reloads and reapplies; the aggregate guards make
// replays safe (idempotent operations no-op, invalid ones fail cleanly).
func (s *BillingService) mutateBill(ctx context.Context, billID uuid.UUID, fn func(*billing.Bill) error) (*billing.Bill, error) {
	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		bill, err := s.bills.FindByID(ctx, billID)
		if err != nil {
			return nil, fmt.Errorf("failed to load bill: %w", err)
		}
		if bill == nil {
			return nil, shared.ErrNotFound
		}

		if err := fn(bill); err != nil {
			return nil, err
		}

		if err := s.bills.SaveWithLock(ctx, bill); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				lastErr = err
				s.logger.Debug("Bill save conflicted, retrying",
					zap.String("bill_id", billID.String()),
					zap.Int("attempt", attempt+1))
				continue
			}
			return nil, fmt.Errorf("failed to save bill: %w", err)
		}

		s.publishEvents(ctx, bill)
		return bill, nil
	}
	return nil, lastErr
}

// publishEvents flushes the aggregate's pending events to the bus.
// Publishing failures are logged, never surfaced: the state change is
// already durable.
func (s *BillingService) publishEvents(ctx context.Context, bill *billing.Bill) {
	events := bill.GetDomainEvents()
	if len(events) == 0 || s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish bill events",
			zap.String("bill_id", bill.ID.String()),
			zap.Error(err))
	}
	bill.ClearDomainEvents()
}

// GetBill returns a bill by ID
func (s *BillingService) GetBill(ctx context.Context, billID uuid.UUID) (*billing.Bill, error) {
	bill, err := s.bills.FindByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, shared.ErrNotFound
	}
	return bill, nil
}

// ListBills returns bills matching the filter with the total count
func (s *BillingService) ListBills(ctx context.Context, filter billing.BillFilter) ([]billing.Bill, int64, error) {
	bills, err := s.bills.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.bills.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return bills, total, nil
}

// PublishDraftBill publishes a draft with its final line items
func (s *BillingService) PublishDraftBill(ctx context.Context, billID uuid.UUID, items billing.LineItems) (*billing.Bill, error) {
	bill, err := s.mutateBill(ctx, billID, func(b *billing.Bill) error {
		return b.Publish(items)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Bill published",
		zap.String("bill_id", bill.ID.String()),
		zap.String("bill_number", bill.BillNumber),
		zap.String("amount_due", bill.AmountDue.String()))
	return bill, nil
}

// RequestCashPayment records a tenant's claim of having paid cash
func (s *BillingService) RequestCashPayment(ctx context.Context, billID uuid.UUID, amount valueobject.Money) (*billing.Bill, error) {
	return s.mutateBill(ctx, billID, func(b *billing.Bill) error {
		return b.RequestCashPayment(amount, s.cashEpsilon)
	})
}

// ConfirmCashPayment confirms a pending cash claim. A nil amount confirms
// the claimed amount as-is.
func (s *BillingService) ConfirmCashPayment(ctx context.Context, billID uuid.UUID, amount *valueobject.Money, note string) (*billing.Bill, error) {
	bill, err := s.mutateBill(ctx, billID, func(b *billing.Bill) error {
		return b.ConfirmCashPayment(amount, s.cashEpsilon, note)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Cash payment confirmed",
		zap.String("bill_id", bill.ID.String()),
		zap.String("status", bill.Status.String()))
	return bill, nil
}

// RejectCashPayment rejects a pending cash claim with a mandatory reason
func (s *BillingService) RejectCashPayment(ctx context.Context, billID uuid.UUID, reason string) (*billing.Bill, error) {
	return s.mutateBill(ctx, billID, func(b *billing.Bill) error {
		return b.RejectCashPayment(reason)
	})
}

// VoidBill cancels a bill that has not received any money
func (s *BillingService) VoidBill(ctx context.Context, billID uuid.UUID, reason string) (*billing.Bill, error) {
	return s.mutateBill(ctx, billID, func(b *billing.Bill) error {
		return b.Void(reason)
	})
}

// SettleBill marks a bill paid by administrative decision, typically when
// the outstanding amount is covered from the tenant's deposit at move-out
func (s *BillingService) SettleBill(ctx context.Context, billID uuid.UUID, adminID uuid.UUID, note string) (*billing.Bill, error) {
	bill, err := s.mutateBill(ctx, billID, func(b *billing.Bill) error {
		return b.MarkSettled(adminID, note)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Bill settled by admin",
		zap.String("bill_id", bill.ID.String()),
		zap.String("admin_id", adminID.String()))
	return bill, nil
}

// GenerateMonthlyBillRequest carries the input for one month's bill
type GenerateMonthlyBillRequest struct {
	ContractID uuid.UUID
	Period     string // YYYY-MM
	Usage      billing.UsageInput
	// AutoPublish publishes the bill immediately instead of leaving a draft
	AutoPublish bool
}

// GenerateMonthlyBill computes the month's fees for a contract and creates
// the bill. The contract must be finalized. An existing draft for the same
// period is silently replaced; any other existing bill for the period is a
// duplicate error.
func (s *BillingService) GenerateMonthlyBill(ctx context.Context, req GenerateMonthlyBillRequest) (*billing.Bill, error) {
	contract, err := s.contracts.FindByID(ctx, req.ContractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	if contract == nil {
		return nil, shared.ErrNotFound
	}
	if !contract.CanGenerateMonthlyBills() {
		return nil, billing.ErrContractNotFinalized
	}

	room, err := s.rooms.FindByID(ctx, contract.RoomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	if room == nil {
		return nil, shared.ErrNotFound
	}

	breakdown, err := billing.CalculateMonthlyFees(contract.GetMonthlyRentMoney(), room.BillingTariff(), req.Usage)
	if err != nil {
		return nil, err
	}

	existing, err := s.bills.FindMonthlyByPeriod(ctx, req.ContractID, req.Period)
	if err != nil {
		return nil, fmt.Errorf("failed to check billing period: %w", err)
	}
	if existing != nil {
		if !existing.IsDraft() {
			return nil, billing.ErrDuplicateBillingPeriod
		}
		// regenerating over a draft replaces it
		if err := s.bills.DeleteDraft(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to replace draft bill: %w", err)
		}
		s.logger.Info("Replaced draft bill for period",
			zap.String("contract_id", req.ContractID.String()),
			zap.String("period", req.Period),
			zap.String("old_bill_id", existing.ID.String()))
	}

	billNumber, err := s.bills.GenerateBillNumber(ctx, billing.BillTypeMonthly)
	if err != nil {
		return nil, fmt.Errorf("failed to generate bill number: %w", err)
	}

	bill, err := billing.NewBill(billing.BillTypeMonthly, contract.RoomID, &contract.ID, billNumber, req.Period, time.Now())
	if err != nil {
		return nil, err
	}
	if req.AutoPublish {
		if err := bill.Publish(breakdown.LineItems); err != nil {
			return nil, err
		}
	} else {
		bill.LineItems = breakdown.LineItems
	}

	if err := s.bills.Save(ctx, bill); err != nil {
		return nil, fmt.Errorf("failed to save bill: %w", err)
	}
	s.publishEvents(ctx, bill)

	s.logger.Info("Monthly bill generated",
		zap.String("bill_id", bill.ID.String()),
		zap.String("bill_number", bill.BillNumber),
		zap.String("contract_id", req.ContractID.String()),
		zap.String("period", req.Period),
		zap.String("total", breakdown.Total.String()))
	return bill, nil
}

// PreviewMonthlyFees runs the fee calculation without touching any bill
func (s *BillingService) PreviewMonthlyFees(ctx context.Context, contractID uuid.UUID, usage billing.UsageInput) (*billing.FeeBreakdown, error) {
	contract, err := s.contracts.FindByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, shared.ErrNotFound
	}
	room, err := s.rooms.FindByID(ctx, contract.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, shared.ErrNotFound
	}
	return billing.CalculateMonthlyFees(contract.GetMonthlyRentMoney(), room.BillingTariff(), usage)
}
