package leasing

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
)

// GraceNotifier delivers deposit deadline warnings
type GraceNotifier interface {
	SendDepositGraceWarning(ctx context.Context, tenant leasing.Tenant, roomID string, dueAt time.Time) error
}

// DepositSweepService expires check-ins whose deposit grace window ran
// out and warns tenants one day before. Both passes are idempotent: the
// aggregate rejects repeat expiry and the warning flag is set at most
// once, so overlapping or replayed sweeps do no extra work.
type DepositSweepService struct {
	checkIns       leasing.CheckInRepository
	rooms          leasing.RoomRepository
	contracts      leasing.ContractRepository
	bills          billing.BillRepository
	eventPublisher shared.EventPublisher
	notifier       GraceNotifier
	logger         *zap.Logger
	warningLead    time.Duration
}

// DepositSweepServiceConfig holds the sweep dependencies
type DepositSweepServiceConfig struct {
	CheckIns       leasing.CheckInRepository
	Rooms          leasing.RoomRepository
	Contracts      leasing.ContractRepository
	Bills          billing.BillRepository
	EventPublisher shared.EventPublisher
	Notifier       GraceNotifier
	Logger         *zap.Logger
	// WarningLead is how long before the deadline the warning goes out
	WarningLead time.Duration
}

// NewDepositSweepService creates a new DepositSweepService
func NewDepositSweepService(config DepositSweepServiceConfig) *DepositSweepService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lead := config.WarningLead
	if lead <= 0 {
		lead = 24 * time.Hour
	}
	return &DepositSweepService{
		checkIns:       config.CheckIns,
		rooms:          config.Rooms,
		contracts:      config.Contracts,
		bills:          config.Bills,
		eventPublisher: config.EventPublisher,
		notifier:       config.Notifier,
		logger:         logger,
		warningLead:    lead,
	}
}

// SweepResult reports what one pass did
type SweepResult struct {
	Expired  int `json:"expired"`
	Warned   int `json:"warned"`
	Failures int `json:"failures"`
}

// Sweep runs one pass: expire overdue check-ins, then warn the ones
// entering their last day. Failures on individual check-ins are counted
// and skipped, never aborting the pass.
func (s *DepositSweepService) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	result := &SweepResult{}

	// candidates due before now expire; candidates due within the lead
	// window get the warning
	candidates, err := s.checkIns.FindPendingDepositDueBefore(ctx, now.Add(s.warningLead))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending check-ins: %w", err)
	}

	for i := range candidates {
		checkIn := &candidates[i]
		switch {
		case !now.Before(checkIn.DepositDueAt):
			expired, err := s.expire(ctx, checkIn.ID, now)
			if err != nil {
				result.Failures++
				s.logger.Error("Failed to expire check-in",
					zap.String("check_in_id", checkIn.ID.String()), zap.Error(err))
			} else if expired {
				result.Expired++
			}
		case checkIn.NeedsGraceWarning(now, s.warningLead):
			warned, err := s.warn(ctx, checkIn.ID, now)
			if err != nil {
				result.Failures++
				s.logger.Error("Failed to send grace warning",
					zap.String("check_in_id", checkIn.ID.String()), zap.Error(err))
			} else if warned {
				result.Warned++
			}
		}
	}

	if result.Expired > 0 || result.Warned > 0 || result.Failures > 0 {
		s.logger.Info("Deposit sweep completed",
			zap.Int("expired", result.Expired),
			zap.Int("warned", result.Warned),
			zap.Int("failures", result.Failures))
	}
	return result, nil
}

// expire reloads the check-in and expires it under optimistic locking.
// The reload closes the race against a deposit landing between the list
// query and the write: a freshly paid check-in no longer expires. The bool
// reports whether this pass actually expired anything, so replayed sweeps
// count zero.
func (s *DepositSweepService) expire(ctx context.Context, checkInID uuid.UUID, now time.Time) (bool, error) {
	checkIn, err := s.checkIns.FindByID(ctx, checkInID)
	if err != nil {
		return false, err
	}
	if checkIn == nil {
		return false, nil
	}
	if !checkIn.Expire(now) {
		return false, nil
	}

	if err := s.checkIns.SaveWithLock(ctx, checkIn); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			// someone else touched it; the next sweep pass re-evaluates
			return false, nil
		}
		return false, err
	}

	s.voidReceiptBill(ctx, checkIn)
	s.releaseRoom(ctx, checkIn.RoomID)

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, checkIn.GetDomainEvents()...); err != nil {
			s.logger.Warn("Failed to publish expiry events", zap.Error(err))
		}
		checkIn.ClearDomainEvents()
	}

	s.logger.Info("Check-in expired, room released",
		zap.String("check_in_id", checkIn.ID.String()),
		zap.String("room_id", checkIn.RoomID.String()))
	return true, nil
}

// warn marks and notifies one check-in entering its last grace day. The
// bool reports whether a warning actually went out this pass.
func (s *DepositSweepService) warn(ctx context.Context, checkInID uuid.UUID, now time.Time) (bool, error) {
	checkIn, err := s.checkIns.FindByID(ctx, checkInID)
	if err != nil {
		return false, err
	}
	if checkIn == nil || !checkIn.NeedsGraceWarning(now, s.warningLead) {
		return false, nil
	}

	// mark first so a slow notifier cannot cause duplicate sends on the
	// next sweep tick
	checkIn.MarkGraceWarningSent(now)
	if err := s.checkIns.SaveWithLock(ctx, checkIn); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return false, nil
		}
		return false, err
	}

	if s.notifier != nil {
		if err := s.notifier.SendDepositGraceWarning(ctx, checkIn.Tenant, checkIn.RoomID.String(), checkIn.DepositDueAt); err != nil {
			s.logger.Warn("Grace warning delivery failed",
				zap.String("check_in_id", checkIn.ID.String()), zap.Error(err))
		}
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, checkIn.GetDomainEvents()...); err != nil {
			s.logger.Warn("Failed to publish warning events", zap.Error(err))
		}
		checkIn.ClearDomainEvents()
	}
	return true, nil
}

func (s *DepositSweepService) voidReceiptBill(ctx context.Context, checkIn *leasing.CheckIn) {
	if checkIn.ReceiptBillID == nil {
		return
	}
	bill, err := s.bills.FindByID(ctx, *checkIn.ReceiptBillID)
	if err != nil || bill == nil || !bill.Status.CanVoid() {
		return
	}
	if err := bill.Void("deposit grace window expired"); err != nil {
		return
	}
	if err := s.bills.SaveWithLock(ctx, bill); err != nil {
		s.logger.Warn("Failed to void expired receipt bill",
			zap.String("bill_id", bill.ID.String()), zap.Error(err))
	}
}

func (s *DepositSweepService) releaseRoom(ctx context.Context, roomID uuid.UUID) {
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
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, room.GetDomainEvents()...); err == nil {
			room.ClearDomainEvents()
		}
	}
}
