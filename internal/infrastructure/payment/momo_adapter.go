package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/billing"
)

const momoRequestTypeCaptureWallet = "captureWallet"

// MoMoAdapter implements the PaymentGateway port for MoMo
type MoMoAdapter struct {
	config     *MoMoConfig
	httpClient *http.Client
}

// NewMoMoAdapter creates a new MoMo adapter
func NewMoMoAdapter(config *MoMoConfig) (*MoMoAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &MoMoAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Provider returns the gateway this adapter talks to
func (a *MoMoAdapter) Provider() billing.GatewayProvider {
	return billing.GatewayProviderMoMo
}

// BuildPaymentURL creates a payment order in MoMo and returns the pay URL
func (a *MoMoAdapter) BuildPaymentURL(ctx context.Context, order *billing.PaymentOrder) (string, error) {
	redirectURL := order.ReturnURL
	if redirectURL == "" {
		redirectURL = a.config.ReturnURL
	}
	ipnURL := order.NotifyURL
	if ipnURL == "" {
		ipnURL = a.config.NotifyURL
	}

	req := momoCreateRequest{
		PartnerCode: a.config.PartnerCode,
		AccessKey:   a.config.AccessKey,
		RequestID:   uuid.New().String(),
		Amount:      order.Amount.IntPart(),
		OrderID:     order.BillNumber,
		OrderInfo:   order.Description,
		RedirectURL: redirectURL,
		IpnURL:      ipnURL,
		RequestType: momoRequestTypeCaptureWallet,
		ExtraData:   "",
		Lang:        "vi",
	}
	req.Signature = a.signCreateRequest(&req)

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("momo: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("momo: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("momo: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("momo: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("momo: gateway request failed: HTTP %d", resp.StatusCode)
	}

	var createResp momoCreateResponse
	if err := json.Unmarshal(respBody, &createResp); err != nil {
		return "", fmt.Errorf("momo: failed to parse response: %w", err)
	}
	if createResp.ResultCode != 0 {
		return "", fmt.Errorf("momo: create payment failed: %d - %s", createResp.ResultCode, createResp.Message)
	}

	return createResp.PayURL, nil
}

// VerifyCallback checks the IPN signature and normalizes the payload.
// A payload with a bad signature comes back with Verified == false rather
// than an error, so the caller can record the attempt for audit.
func (a *MoMoAdapter) VerifyCallback(ctx context.Context, payload []byte) (*billing.PaymentEvent, error) {
	var ipn momoIPNPayload
	if err := json.Unmarshal(payload, &ipn); err != nil {
		return nil, fmt.Errorf("momo: failed to parse IPN payload: %w", err)
	}

	event := &billing.PaymentEvent{
		Provider:      billing.GatewayProviderMoMo,
		TransactionID: strconv.FormatInt(ipn.TransID, 10),
		BillNumber:    ipn.OrderID,
		Amount:        decimal.NewFromInt(ipn.Amount),
		ResultCode:    ipn.ResultCode,
		Success:       ipn.ResultCode == 0,
		Verified:      a.verifyIPNSignature(&ipn),
		RawPayload:    string(payload),
	}

	if ipn.ResponseTime > 0 {
		t := time.UnixMilli(ipn.ResponseTime)
		event.PaidAt = &t
	}

	return event, nil
}

// signCreateRequest signs the create request per MoMo's v2 signing rule:
// HMAC-SHA256 over the alphabetically ordered key=value pairs.
func (a *MoMoAdapter) signCreateRequest(req *momoCreateRequest) string {
	raw := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		a.config.AccessKey, req.Amount, req.ExtraData, req.IpnURL, req.OrderID,
		req.OrderInfo, req.PartnerCode, req.RedirectURL, req.RequestID, req.RequestType,
	)
	return hmacSHA256Hex(a.config.SecretKey, raw)
}

// verifyIPNSignature recomputes the IPN signature and compares in constant time
func (a *MoMoAdapter) verifyIPNSignature(ipn *momoIPNPayload) bool {
	raw := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		a.config.AccessKey, ipn.Amount, ipn.ExtraData, ipn.Message, ipn.OrderID,
		ipn.OrderInfo, ipn.OrderType, ipn.PartnerCode, ipn.PayType, ipn.RequestID,
		ipn.ResponseTime, ipn.ResultCode, ipn.TransID,
	)
	expected := hmacSHA256Hex(a.config.SecretKey, raw)
	return hmac.Equal([]byte(expected), []byte(ipn.Signature))
}

// Ensure MoMoAdapter implements PaymentGateway
var _ billing.PaymentGateway = (*MoMoAdapter)(nil)
