package leasing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/leasing"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// The handlers below react to PaymentConfirmed events from the billing
// side. Each one is registered separately on the bus, so a failure in one
// never blocks the others.

// ReceiptPaidHandler completes the deposit step of a check-in when its
// receipt bill receives a confirmed payment
type ReceiptPaidHandler struct {
	checkIns leasing.CheckInRepository
	logger   *zap.Logger
}

// NewReceiptPaidHandler creates a new ReceiptPaidHandler
func NewReceiptPaidHandler(checkIns leasing.CheckInRepository, logger *zap.Logger) *ReceiptPaidHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptPaidHandler{checkIns: checkIns, logger: logger}
}

// EventTypes returns the handled event types
func (h *ReceiptPaidHandler) EventTypes() []string {
	return []string{"PaymentConfirmed"}
}

// Handle marks the check-in's deposit as paid once the receipt bill is
// fully settled. Partial payments on the receipt do not unlock the flow.
func (h *ReceiptPaidHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	confirmed, ok := event.(*billing.PaymentConfirmedEvent)
	if !ok || confirmed.BillType != billing.BillTypeReceipt {
		return nil
	}
	if confirmed.NewStatus != billing.BillStatusPaid {
		return nil
	}

	checkIn, err := h.checkIns.FindByReceiptBill(ctx, confirmed.BillID)
	if err != nil {
		return fmt.Errorf("failed to find check-in for receipt bill: %w", err)
	}
	if checkIn == nil {
		h.logger.Warn("Receipt bill paid but no check-in references it",
			zap.String("bill_id", confirmed.BillID.String()))
		return nil
	}

	if err := checkIn.MarkDepositPaid(time.Now()); err != nil {
		return err
	}
	if err := h.checkIns.SaveWithLock(ctx, checkIn); err != nil {
		return fmt.Errorf("failed to save check-in: %w", err)
	}

	h.logger.Info("Deposit received for check-in",
		zap.String("check_in_id", checkIn.ID.String()),
		zap.String("room_id", checkIn.RoomID.String()))
	return nil
}

// ContractDepositHandler accumulates confirmed contract-bill payments
// into the contract's deposit total
type ContractDepositHandler struct {
	contracts leasing.ContractRepository
	logger    *zap.Logger
}

// NewContractDepositHandler creates a new ContractDepositHandler
func NewContractDepositHandler(contracts leasing.ContractRepository, logger *zap.Logger) *ContractDepositHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractDepositHandler{contracts: contracts, logger: logger}
}

// EventTypes returns the handled event types
func (h *ContractDepositHandler) EventTypes() []string {
	return []string{"PaymentConfirmed"}
}

// Handle records the payment on the contract's deposit ledger
func (h *ContractDepositHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	confirmed, ok := event.(*billing.PaymentConfirmedEvent)
	if !ok || confirmed.BillType != billing.BillTypeContract || confirmed.ContractID == nil {
		return nil
	}

	contract, err := h.contracts.FindByID(ctx, *confirmed.ContractID)
	if err != nil {
		return fmt.Errorf("failed to load contract: %w", err)
	}
	if contract == nil {
		h.logger.Warn("Contract bill paid but contract not found",
			zap.String("contract_id", confirmed.ContractID.String()))
		return nil
	}

	if err := contract.RecordDepositPayment(valueobject.NewMoneyVND(confirmed.Amount), time.Now()); err != nil {
		return err
	}
	if err := h.contracts.SaveWithLock(ctx, contract); err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}

	h.logger.Info("Contract deposit payment recorded",
		zap.String("contract_id", contract.ID.String()),
		zap.String("amount", confirmed.Amount.String()),
		zap.String("total_deposit_paid", contract.TotalDepositPaid.String()))
	return nil
}

// PaymentNotifier delivers tenant-facing payment messages
type PaymentNotifier interface {
	SendPaymentReceipt(ctx context.Context, tenant leasing.Tenant, billNumber, amount string) error
}

// PaymentReceiptHandler emails the tenant a receipt after any confirmed
// payment on one of their contract's bills
type PaymentReceiptHandler struct {
	contracts leasing.ContractRepository
	checkIns  leasing.CheckInRepository
	notifier  PaymentNotifier
	logger    *zap.Logger
}

// NewPaymentReceiptHandler creates a new PaymentReceiptHandler
func NewPaymentReceiptHandler(contracts leasing.ContractRepository, checkIns leasing.CheckInRepository,
	notifier PaymentNotifier, logger *zap.Logger) *PaymentReceiptHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentReceiptHandler{contracts: contracts, checkIns: checkIns, notifier: notifier, logger: logger}
}

// EventTypes returns the handled event types
func (h *PaymentReceiptHandler) EventTypes() []string {
	return []string{"PaymentConfirmed"}
}

// Handle resolves the tenant behind the bill and sends the receipt.
// Delivery problems are logged and swallowed; a lost email must never
// bubble back into payment processing.
func (h *PaymentReceiptHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	confirmed, ok := event.(*billing.PaymentConfirmedEvent)
	if !ok || h.notifier == nil {
		return nil
	}

	tenant, found := h.resolveTenant(ctx, confirmed)
	if !found || tenant.Email == "" {
		return nil
	}

	if err := h.notifier.SendPaymentReceipt(ctx, tenant, confirmed.BillNumber, confirmed.Amount.String()); err != nil {
		h.logger.Warn("Failed to send payment receipt",
			zap.String("bill_number", confirmed.BillNumber),
			zap.String("email", tenant.Email),
			zap.Error(err))
	}
	return nil
}

func (h *PaymentReceiptHandler) resolveTenant(ctx context.Context, confirmed *billing.PaymentConfirmedEvent) (leasing.Tenant, bool) {
	if confirmed.ContractID != nil {
		if contract, err := h.contracts.FindByID(ctx, *confirmed.ContractID); err == nil && contract != nil {
			return contract.PrimaryTenant, true
		}
		return leasing.Tenant{}, false
	}
	if confirmed.BillType == billing.BillTypeReceipt {
		if checkIn, err := h.checkIns.FindByReceiptBill(ctx, confirmed.BillID); err == nil && checkIn != nil {
			return checkIn.Tenant, true
		}
	}
	return leasing.Tenant{}, false
}
