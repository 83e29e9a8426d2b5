package billing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// ErrGatewayNotRegistered is returned when no adapter handles the provider
var ErrGatewayNotRegistered = errors.New("payment callback: gateway not registered")

// IdempotencyStore remembers processed callback keys across instances.
// SeenOrRecord returns true when the key was already recorded.
type IdempotencyStore interface {
	SeenOrRecord(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// ReconciliationService turns raw gateway callbacks into payments on bills.
// The bill aggregate's (provider, transactionId) ledger is the source of
// truth for idempotency; the store in front of it only saves a round trip.
type ReconciliationService struct {
	gateways       map[billing.GatewayProvider]billing.PaymentGateway
	bills          billing.BillRepository
	eventPublisher shared.EventPublisher
	idempotency    IdempotencyStore
	logger         *zap.Logger
	cashEpsilon    valueobject.Money
}

// ReconciliationServiceConfig holds the service dependencies
type ReconciliationServiceConfig struct {
	Gateways       []billing.PaymentGateway
	Bills          billing.BillRepository
	EventPublisher shared.EventPublisher
	Idempotency    IdempotencyStore
	Logger         *zap.Logger
	CashEpsilon    valueobject.Money
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(config ReconciliationServiceConfig) *ReconciliationService {
	gateways := make(map[billing.GatewayProvider]billing.PaymentGateway)
	for _, gw := range config.Gateways {
		gateways[gw.Provider()] = gw
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	epsilon := config.CashEpsilon
	if epsilon.IsZero() {
		epsilon = valueobject.NewMoneyVNDFromInt(1)
	}
	return &ReconciliationService{
		gateways:       gateways,
		bills:          config.Bills,
		eventPublisher: config.EventPublisher,
		idempotency:    config.Idempotency,
		logger:         logger,
		cashEpsilon:    epsilon,
	}
}

// RegisterGateway adds a provider adapter
func (s *ReconciliationService) RegisterGateway(gateway billing.PaymentGateway) {
	s.gateways[gateway.Provider()] = gateway
}

// BuildPaymentURL creates a redirect URL for paying a bill online
func (s *ReconciliationService) BuildPaymentURL(ctx context.Context, provider billing.GatewayProvider, order *billing.PaymentOrder) (string, error) {
	gateway, ok := s.gateways[provider]
	if !ok {
		return "", ErrGatewayNotRegistered
	}
	return gateway.BuildPaymentURL(ctx, order)
}

// CallbackResult is what the HTTP layer acknowledges back to the gateway
type CallbackResult struct {
	Acked            bool   `json:"acked"`
	AlreadyProcessed bool   `json:"already_processed,omitempty"`
	BillNumber       string `json:"bill_number,omitempty"`
	Applied          bool   `json:"applied,omitempty"`
}

// ProcessCallback verifies a gateway callback and applies it to the bill.
//
// A failed signature check is an UnverifiedPaymentEvent error and is never
// acknowledged. A verified callback for an unknown bill is acknowledged
// and dropped so the gateway stops retrying something we can never apply.
// Replays of an already-credited transaction are clean acked no-ops.
func (s *ReconciliationService) ProcessCallback(ctx context.Context, provider billing.GatewayProvider, payload []byte) (*CallbackResult, error) {
	gateway, ok := s.gateways[provider]
	if !ok {
		return nil, ErrGatewayNotRegistered
	}

	event, err := gateway.VerifyCallback(ctx, payload)
	if err != nil {
		s.logger.Warn("Callback payload rejected",
			zap.String("provider", provider.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", billing.ErrUnverifiedPaymentEvent, err)
	}
	if !event.Verified {
		s.logger.Warn("Callback signature verification failed",
			zap.String("provider", provider.String()),
			zap.String("transaction_id", event.TransactionID),
			zap.String("bill_number", event.BillNumber))
		return nil, billing.ErrUnverifiedPaymentEvent
	}

	idempotencyKey := fmt.Sprintf("callback:%s:%s", provider, event.TransactionID)
	if s.idempotency != nil {
		seen, err := s.idempotency.SeenOrRecord(ctx, idempotencyKey)
		if err != nil {
			// the store is an optimization; the ledger check below still holds
			s.logger.Warn("Idempotency store unavailable", zap.Error(err))
		} else if seen && s.ledgerConfirms(ctx, event) {
			s.logger.Info("Callback already processed",
				zap.String("idempotency_key", idempotencyKey))
			return &CallbackResult{Acked: true, AlreadyProcessed: true, BillNumber: event.BillNumber}, nil
		}
	}

	result, err := s.applyEvent(ctx, event)
	if err != nil && s.idempotency != nil {
		// allow the gateway retry to reprocess after a transient failure
		if ferr := s.idempotency.Forget(ctx, idempotencyKey); ferr != nil {
			s.logger.Warn("Failed to release idempotency key", zap.Error(ferr))
		}
	}
	return result, err
}

// ledgerConfirms reports whether the bill's payment ledger already carries
// the event's (provider, transactionId). A store hit alone is not enough to
// ack a duplicate: a concurrent first delivery may still be in flight, or may
// have failed and released its key after this delivery read it. Applying is
// the safe fallback since the ledger makes it a no-op.
func (s *ReconciliationService) ledgerConfirms(ctx context.Context, event *billing.PaymentEvent) bool {
	bill, err := s.bills.FindByNumber(ctx, event.BillNumber)
	if err != nil || bill == nil {
		return false
	}
	return bill.Payments.FindByTransaction(event.Provider.String(), event.TransactionID) != nil
}

func (s *ReconciliationService) applyEvent(ctx context.Context, event *billing.PaymentEvent) (*CallbackResult, error) {
	bill, err := s.bills.FindByNumber(ctx, event.BillNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to look up bill: %w", err)
	}
	if bill == nil {
		s.logger.Warn("Callback references unknown bill, acknowledging without effect",
			zap.String("provider", event.Provider.String()),
			zap.String("bill_number", event.BillNumber),
			zap.String("transaction_id", event.TransactionID))
		return &CallbackResult{Acked: true, BillNumber: event.BillNumber}, nil
	}

	amount := valueobject.NewMoneyVND(event.Amount)
	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		if event.Success {
			err = bill.ApplyGatewayPayment(event.Provider.String(), event.TransactionID, amount, s.cashEpsilon)
		} else {
			err = bill.RecordFailedGatewayPayment(event.Provider.String(), event.TransactionID, amount,
				fmt.Sprintf("gateway result code %d", event.ResultCode))
		}
		if err != nil {
			return nil, err
		}

		if err := s.bills.SaveWithLock(ctx, bill); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				lastErr = err
				bill, err = s.bills.FindByNumber(ctx, event.BillNumber)
				if err != nil || bill == nil {
					return nil, fmt.Errorf("failed to reload bill: %w", err)
				}
				continue
			}
			return nil, fmt.Errorf("failed to save bill: %w", err)
		}

		events := bill.GetDomainEvents()
		if len(events) > 0 && s.eventPublisher != nil {
			if err := s.eventPublisher.Publish(ctx, events...); err != nil {
				s.logger.Warn("Failed to publish payment events",
					zap.String("bill_id", bill.ID.String()),
					zap.Error(err))
			}
			bill.ClearDomainEvents()
		}

		s.logger.Info("Gateway callback applied",
			zap.String("provider", event.Provider.String()),
			zap.String("bill_number", bill.BillNumber),
			zap.String("transaction_id", event.TransactionID),
			zap.Bool("success", event.Success),
			zap.String("status", bill.Status.String()))
		return &CallbackResult{Acked: true, BillNumber: bill.BillNumber, Applied: event.Success}, nil
	}
	return nil, lastErr
}
