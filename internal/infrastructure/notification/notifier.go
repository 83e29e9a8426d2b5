package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appleasing "github.com/nhatro/backend/internal/application/leasing"
	"github.com/nhatro/backend/internal/domain/leasing"
)

// MailNotifier delivers tenant-facing messages by mail. Tenants without
// an email address are skipped silently: the message is a courtesy, the
// ledger is the source of truth.
type MailNotifier struct {
	mailer Mailer
	logger *zap.Logger
}

// NewMailNotifier creates a new MailNotifier
func NewMailNotifier(mailer Mailer, logger *zap.Logger) *MailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailNotifier{
		mailer: mailer,
		logger: logger,
	}
}

// SendPaymentReceipt mails a payment confirmation to the tenant
func (n *MailNotifier) SendPaymentReceipt(ctx context.Context, tenant leasing.Tenant, billNumber, amount string) error {
	if tenant.Email == "" {
		n.logger.Debug("Tenant has no email, skipping payment receipt",
			zap.String("bill_number", billNumber))
		return nil
	}

	subject := fmt.Sprintf("Xac nhan thanh toan hoa don %s", billNumber)
	body := fmt.Sprintf(
		"Chao %s,\n\nChung toi da nhan duoc thanh toan %s VND cho hoa don %s.\n\nCam on ban.",
		tenant.FullName, amount, billNumber,
	)

	if err := n.mailer.SendMail(ctx, tenant.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send payment receipt: %w", err)
	}

	n.logger.Info("Payment receipt sent",
		zap.String("bill_number", billNumber),
		zap.String("to", tenant.Email))
	return nil
}

// SendDepositGraceWarning mails a deposit deadline warning to the tenant
func (n *MailNotifier) SendDepositGraceWarning(ctx context.Context, tenant leasing.Tenant, roomID string, dueAt time.Time) error {
	if tenant.Email == "" {
		n.logger.Debug("Tenant has no email, skipping deposit warning",
			zap.String("room_id", roomID))
		return nil
	}

	subject := "Nhac nho: han dat coc sap het"
	body := fmt.Sprintf(
		"Chao %s,\n\nTien coc giu phong cua ban den han vao %s. Sau thoi diem nay yeu cau giu phong se bi huy.\n\nCam on ban.",
		tenant.FullName, dueAt.Format("15:04 02/01/2006"),
	)

	if err := n.mailer.SendMail(ctx, tenant.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send deposit warning: %w", err)
	}

	n.logger.Info("Deposit grace warning sent",
		zap.String("room_id", roomID),
		zap.String("to", tenant.Email))
	return nil
}

// LogNotifier is the stand-in used when mail is disabled: it records
// every would-be message in the log and always succeeds.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// SendPaymentReceipt logs the receipt instead of mailing it
func (n *LogNotifier) SendPaymentReceipt(ctx context.Context, tenant leasing.Tenant, billNumber, amount string) error {
	n.logger.Info("Payment receipt (mail disabled)",
		zap.String("tenant", tenant.FullName),
		zap.String("bill_number", billNumber),
		zap.String("amount", amount))
	return nil
}

// SendDepositGraceWarning logs the warning instead of mailing it
func (n *LogNotifier) SendDepositGraceWarning(ctx context.Context, tenant leasing.Tenant, roomID string, dueAt time.Time) error {
	n.logger.Info("Deposit grace warning (mail disabled)",
		zap.String("tenant", tenant.FullName),
		zap.String("room_id", roomID),
		zap.Time("due_at", dueAt))
	return nil
}

var (
	_ appleasing.PaymentNotifier = (*MailNotifier)(nil)
	_ appleasing.GraceNotifier   = (*MailNotifier)(nil)
	_ appleasing.PaymentNotifier = (*LogNotifier)(nil)
	_ appleasing.GraceNotifier   = (*LogNotifier)(nil)
)
