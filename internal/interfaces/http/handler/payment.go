package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appbilling "github.com/nhatro/backend/internal/application/billing"
	"github.com/nhatro/backend/internal/domain/billing"
)

// PaymentHandler exposes online payment URL creation and the gateway
// callback endpoints. Callbacks are called by the gateways themselves and
// carry no session; authenticity comes from the payload signature.
type PaymentHandler struct {
	BaseHandler
	reconciliation *appbilling.ReconciliationService
	billing        *appbilling.BillingService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(reconciliation *appbilling.ReconciliationService, billingService *appbilling.BillingService) *PaymentHandler {
	return &PaymentHandler{reconciliation: reconciliation, billing: billingService}
}

// CreatePaymentURLRequest selects the gateway for an online payment
type CreatePaymentURLRequest struct {
	Provider  string `json:"provider" binding:"required,oneof=momo vnpay zalopay"`
	ReturnURL string `json:"return_url" binding:"omitempty,url"`
}

// PaymentURLResponse carries the gateway redirect URL
type PaymentURLResponse struct {
	Provider   string `json:"provider"`
	BillNumber string `json:"bill_number"`
	PayURL     string `json:"pay_url"`
}

// CreatePaymentURL handles POST /api/v1/bills/:id/payment-url
func (h *PaymentHandler) CreatePaymentURL(c *gin.Context) {
	billID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req CreatePaymentURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	bill, err := h.billing.GetBill(c.Request.Context(), billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	remaining := bill.AmountDue.Sub(bill.AmountPaid)
	if !bill.Status.CanAcceptPayment() || !remaining.IsPositive() {
		h.HandleError(c, billing.NewValidationError("bill does not accept online payments in its current status"))
		return
	}

	provider := billing.GatewayProvider(req.Provider)
	payURL, err := h.reconciliation.BuildPaymentURL(c.Request.Context(), provider, &billing.PaymentOrder{
		BillID:      bill.ID,
		BillNumber:  bill.BillNumber,
		Amount:      remaining,
		Description: "Thanh toan hoa don " + bill.BillNumber,
		ReturnURL:   req.ReturnURL,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, PaymentURLResponse{
		Provider:   req.Provider,
		BillNumber: bill.BillNumber,
		PayURL:     payURL,
	})
}

// HandleMoMoCallback handles POST /payments/callback/momo
func (h *PaymentHandler) HandleMoMoCallback(c *gin.Context) {
	h.handleCallback(c, billing.GatewayProviderMoMo)
}

// HandleVNPayCallback handles GET /payments/callback/vnpay. VNPay sends
// its IPN as query parameters; the raw query is the signed payload.
func (h *PaymentHandler) HandleVNPayCallback(c *gin.Context) {
	h.processCallback(c, billing.GatewayProviderVNPay, []byte(c.Request.URL.RawQuery))
}

// HandleZaloPayCallback handles POST /payments/callback/zalopay
func (h *PaymentHandler) HandleZaloPayCallback(c *gin.Context) {
	h.handleCallback(c, billing.GatewayProviderZaloPay)
}

func (h *PaymentHandler) handleCallback(c *gin.Context, provider billing.GatewayProvider) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.respondToGateway(c, provider, false)
		return
	}
	h.processCallback(c, provider, payload)
}

func (h *PaymentHandler) processCallback(c *gin.Context, provider billing.GatewayProvider, payload []byte) {
	result, err := h.reconciliation.ProcessCallback(c.Request.Context(), provider, payload)
	if err != nil {
		// An unverified event is never acknowledged: the gateway keeps
		// retrying and an operator can investigate. Transient failures
		// also answer non-ack so the gateway redelivers.
		h.respondToGateway(c, provider, false)
		return
	}
	h.respondToGateway(c, provider, result.Acked)
}

// respondToGateway answers in the format each gateway expects. Anything
// other than the provider's ack shape counts as a failure and triggers a
// retry on their side.
func (h *PaymentHandler) respondToGateway(c *gin.Context, provider billing.GatewayProvider, acked bool) {
	switch provider {
	case billing.GatewayProviderMoMo:
		if acked {
			c.Status(http.StatusNoContent)
		} else {
			c.Status(http.StatusBadRequest)
		}
	case billing.GatewayProviderVNPay:
		if acked {
			c.JSON(http.StatusOK, gin.H{"RspCode": "00", "Message": "Confirm Success"})
		} else {
			c.JSON(http.StatusOK, gin.H{"RspCode": "97", "Message": "Invalid Checksum"})
		}
	case billing.GatewayProviderZaloPay:
		if acked {
			c.JSON(http.StatusOK, gin.H{"return_code": 1, "return_message": "success"})
		} else {
			c.JSON(http.StatusOK, gin.H{"return_code": -1, "return_message": "fail"})
		}
	default:
		if acked {
			c.String(http.StatusOK, "success")
		} else {
			c.String(http.StatusBadRequest, "fail")
		}
	}
}
