package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GatewayProvider identifies an online payment provider
type GatewayProvider string

const (
	GatewayProviderMoMo    GatewayProvider = "momo"
	GatewayProviderVNPay   GatewayProvider = "vnpay"
	GatewayProviderZaloPay GatewayProvider = "zalopay"
)

// IsValid checks if the provider is known
func (p GatewayProvider) IsValid() bool {
	switch p {
	case GatewayProviderMoMo, GatewayProviderVNPay, GatewayProviderZaloPay:
		return true
	}
	return false
}

// String returns the provider name
func (p GatewayProvider) String() string {
	return string(p)
}

// PaymentOrder is the request to open an online payment for a bill
type PaymentOrder struct {
	BillID      uuid.UUID
	BillNumber  string
	Amount      decimal.Decimal
	Description string
	ReturnURL   string
	NotifyURL   string
}

// PaymentEvent is the normalized, verified form of a gateway callback.
// Signature authenticity is established by the adapter before the event
// reaches reconciliation; the core only trusts Verified.
type PaymentEvent struct {
	Provider      GatewayProvider
	TransactionID string
	BillNumber    string // order reference carried through the gateway
	Amount        decimal.Decimal
	ResultCode    int
	Success       bool
	Verified      bool
	PaidAt        *time.Time
	RawPayload    string
}

// PaymentGateway is the port implemented by each provider adapter.
// The core treats all providers uniformly through this interface.
type PaymentGateway interface {
	// Provider returns the gateway this adapter talks to
	Provider() GatewayProvider
	// BuildPaymentURL creates the redirect URL for an online payment
	BuildPaymentURL(ctx context.Context, order *PaymentOrder) (string, error)
	// VerifyCallback checks the callback signature and normalizes the payload.
	// An event with a bad signature is returned with Verified == false.
	VerifyCallback(ctx context.Context, payload []byte) (*PaymentEvent, error)
}
