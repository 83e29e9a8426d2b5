package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/billing"
)

// ZaloPayAdapter implements the PaymentGateway port for ZaloPay
type ZaloPayAdapter struct {
	config     *ZaloPayConfig
	httpClient *http.Client
	now        func() time.Time
}

// NewZaloPayAdapter creates a new ZaloPay adapter
func NewZaloPayAdapter(config *ZaloPayConfig) (*ZaloPayAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ZaloPayAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}, nil
}

// Provider returns the gateway this adapter talks to
func (a *ZaloPayAdapter) Provider() billing.GatewayProvider {
	return billing.GatewayProviderZaloPay
}

// BuildPaymentURL creates a payment order in ZaloPay and returns the order URL
func (a *ZaloPayAdapter) BuildPaymentURL(ctx context.Context, order *billing.PaymentOrder) (string, error) {
	now := a.now()

	// ZaloPay requires the trans id to be prefixed with the current yymmdd
	appTransID := fmt.Sprintf("%s_%s", now.Format("060102"), order.BillNumber)
	appTime := now.UnixMilli()
	amount := order.Amount.IntPart()

	embedData, err := json.Marshal(map[string]string{"redirecturl": order.ReturnURL})
	if err != nil {
		return "", fmt.Errorf("zalopay: failed to marshal embed data: %w", err)
	}

	form := url.Values{}
	form.Set("app_id", a.config.AppID)
	form.Set("app_trans_id", appTransID)
	form.Set("app_user", order.BillNumber)
	form.Set("app_time", strconv.FormatInt(appTime, 10))
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("embed_data", string(embedData))
	form.Set("item", "[]")
	form.Set("description", order.Description)
	form.Set("callback_url", order.NotifyURL)

	// mac covers app_id|app_trans_id|app_user|amount|app_time|embed_data|item
	macData := fmt.Sprintf("%s|%s|%s|%d|%d|%s|%s",
		a.config.AppID, appTransID, order.BillNumber, amount, appTime, embedData, "[]")
	form.Set("mac", hmacSHA256Hex(a.config.Key1, macData))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("zalopay: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("zalopay: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("zalopay: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("zalopay: gateway request failed: HTTP %d", resp.StatusCode)
	}

	var createResp zalopayCreateResponse
	if err := json.Unmarshal(respBody, &createResp); err != nil {
		return "", fmt.Errorf("zalopay: failed to parse response: %w", err)
	}
	if createResp.ReturnCode != 1 {
		return "", fmt.Errorf("zalopay: create order failed: %d - %s",
			createResp.SubReturnCode, createResp.SubReturnMessage)
	}

	return createResp.OrderURL, nil
}

// VerifyCallback checks the callback mac with key2 and normalizes the
// payload. ZaloPay only notifies successful payments, so a verified
// callback is always a success. A bad mac yields Verified == false.
func (a *ZaloPayAdapter) VerifyCallback(ctx context.Context, payload []byte) (*billing.PaymentEvent, error) {
	var envelope zalopayCallbackEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("zalopay: failed to parse callback payload: %w", err)
	}

	var data zalopayCallbackData
	if err := json.Unmarshal([]byte(envelope.Data), &data); err != nil {
		return nil, fmt.Errorf("zalopay: failed to parse callback data: %w", err)
	}

	expectedMac := hmacSHA256Hex(a.config.Key2, envelope.Data)
	verified := envelope.Mac != "" && hmac.Equal([]byte(expectedMac), []byte(envelope.Mac))

	event := &billing.PaymentEvent{
		Provider:      billing.GatewayProviderZaloPay,
		TransactionID: strconv.FormatInt(data.ZpTransID, 10),
		BillNumber:    billNumberFromAppTransID(data.AppTransID),
		Amount:        decimal.NewFromInt(data.Amount),
		ResultCode:    1,
		Success:       true,
		Verified:      verified,
		RawPayload:    string(payload),
	}

	if data.ServerTime > 0 {
		t := time.UnixMilli(data.ServerTime)
		event.PaidAt = &t
	}

	return event, nil
}

// billNumberFromAppTransID strips the yymmdd prefix off an app_trans_id
func billNumberFromAppTransID(appTransID string) string {
	if idx := strings.Index(appTransID, "_"); idx >= 0 {
		return appTransID[idx+1:]
	}
	return appTransID
}

func hmacSHA256Hex(key, data string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Ensure ZaloPayAdapter implements PaymentGateway
var _ billing.PaymentGateway = (*ZaloPayAdapter)(nil)
