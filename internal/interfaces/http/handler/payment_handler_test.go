package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appbilling "github.com/nhatro/backend/internal/application/billing"
	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/interfaces/http/dto"
)

// fakeGateway implements billing.PaymentGateway with canned responses
type fakeGateway struct {
	provider billing.GatewayProvider
	payURL   string
	event    *billing.PaymentEvent
	err      error
}

func (g *fakeGateway) Provider() billing.GatewayProvider {
	return g.provider
}

func (g *fakeGateway) BuildPaymentURL(ctx context.Context, order *billing.PaymentOrder) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.payURL, nil
}

func (g *fakeGateway) VerifyCallback(ctx context.Context, payload []byte) (*billing.PaymentEvent, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.event, nil
}

func newPaymentHandler(bills *MockBillRepository, gateway billing.PaymentGateway) *PaymentHandler {
	reconciliation := appbilling.NewReconciliationService(appbilling.ReconciliationServiceConfig{
		Gateways: []billing.PaymentGateway{gateway},
		Bills:    bills,
	})
	billingService := appbilling.NewBillingService(appbilling.BillingServiceConfig{Bills: bills})
	return NewPaymentHandler(reconciliation, billingService)
}

func TestPaymentHandler_CreatePaymentURL(t *testing.T) {
	t.Run("returns the gateway redirect", func(t *testing.T) {
		bills := &MockBillRepository{}
		gateway := &fakeGateway{provider: billing.GatewayProviderMoMo, payURL: "https://payment.momo.vn/pay/abc"}
		h := newPaymentHandler(bills, gateway)

		bill := unpaidBill(t, 3500000)
		bills.On("FindByID", mock.Anything, bill.ID).Return(bill, nil)

		w := performRequest(t, h.CreatePaymentURL, http.MethodPost,
			"/bills/"+bill.ID.String()+"/payment-url",
			CreatePaymentURLRequest{Provider: "momo"}, idParams(bill.ID))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "https://payment.momo.vn/pay/abc", data["pay_url"])
		assert.Equal(t, "HD-202608-0001", data["bill_number"])
	})

	t.Run("unregistered provider is an error", func(t *testing.T) {
		bills := &MockBillRepository{}
		gateway := &fakeGateway{provider: billing.GatewayProviderMoMo, payURL: "https://x"}
		h := newPaymentHandler(bills, gateway)

		bill := unpaidBill(t, 3500000)
		bills.On("FindByID", mock.Anything, bill.ID).Return(bill, nil)

		w := performRequest(t, h.CreatePaymentURL, http.MethodPost,
			"/bills/"+bill.ID.String()+"/payment-url",
			CreatePaymentURLRequest{Provider: "vnpay"}, idParams(bill.ID))
		assert.NotEqual(t, http.StatusOK, w.Code)
	})

	t.Run("voided bill is rejected", func(t *testing.T) {
		bills := &MockBillRepository{}
		gateway := &fakeGateway{provider: billing.GatewayProviderMoMo, payURL: "https://x"}
		h := newPaymentHandler(bills, gateway)

		bill := unpaidBill(t, 3500000)
		require.NoError(t, bill.Void("test"))
		bills.On("FindByID", mock.Anything, bill.ID).Return(bill, nil)

		w := performRequest(t, h.CreatePaymentURL, http.MethodPost,
			"/bills/"+bill.ID.String()+"/payment-url",
			CreatePaymentURLRequest{Provider: "momo"}, idParams(bill.ID))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPaymentHandler_Callback(t *testing.T) {
	t.Run("verified payment is acked in provider format", func(t *testing.T) {
		bills := &MockBillRepository{}
		bill := unpaidBill(t, 3500000)
		gateway := &fakeGateway{
			provider: billing.GatewayProviderZaloPay,
			event: &billing.PaymentEvent{
				Provider:      billing.GatewayProviderZaloPay,
				TransactionID: "260831000001",
				BillNumber:    bill.BillNumber,
				Amount:        decimal.NewFromInt(3500000),
				Success:       true,
				Verified:      true,
			},
		}
		h := newPaymentHandler(bills, gateway)

		bills.On("FindByNumber", mock.Anything, bill.BillNumber).Return(bill, nil)
		bills.On("SaveWithLock", mock.Anything, bill).Return(nil)

		w := performRequest(t, h.HandleZaloPayCallback, http.MethodPost,
			"/payments/callback/zalopay", map[string]string{"data": "x", "mac": "y"}, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var ack map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
		assert.Equal(t, float64(1), ack["return_code"])
		assert.Equal(t, billing.BillStatusPaid, bill.Status)
	})

	t.Run("unverified event is never acked", func(t *testing.T) {
		bills := &MockBillRepository{}
		gateway := &fakeGateway{
			provider: billing.GatewayProviderZaloPay,
			event: &billing.PaymentEvent{
				Provider:      billing.GatewayProviderZaloPay,
				TransactionID: "260831000002",
				BillNumber:    "HD-202608-0001",
				Verified:      false,
			},
		}
		h := newPaymentHandler(bills, gateway)

		w := performRequest(t, h.HandleZaloPayCallback, http.MethodPost,
			"/payments/callback/zalopay", map[string]string{"data": "x", "mac": "bad"}, nil)

		var ack map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
		assert.Equal(t, float64(-1), ack["return_code"])
		bills.AssertNotCalled(t, "FindByNumber", mock.Anything, mock.Anything)
	})

	t.Run("malformed payload is not acked", func(t *testing.T) {
		bills := &MockBillRepository{}
		gateway := &fakeGateway{
			provider: billing.GatewayProviderMoMo,
			err:      errors.New("parse momo callback: unexpected end of JSON input"),
		}
		h := newPaymentHandler(bills, gateway)

		w := performRequest(t, h.HandleMoMoCallback, http.MethodPost,
			"/payments/callback/momo", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("verified event for unknown bill is acked and dropped", func(t *testing.T) {
		bills := &MockBillRepository{}
		gateway := &fakeGateway{
			provider: billing.GatewayProviderMoMo,
			event: &billing.PaymentEvent{
				Provider:      billing.GatewayProviderMoMo,
				TransactionID: "99887766",
				BillNumber:    "HD-000000-0000",
				Amount:        decimal.NewFromInt(100),
				Success:       true,
				Verified:      true,
			},
		}
		h := newPaymentHandler(bills, gateway)

		bills.On("FindByNumber", mock.Anything, "HD-000000-0000").Return(nil, nil)

		w := performRequest(t, h.HandleMoMoCallback, http.MethodPost,
			"/payments/callback/momo", map[string]string{"orderId": "HD-000000-0000"}, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
