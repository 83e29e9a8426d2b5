package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/billing"
)

const (
	vnpayVersion    = "2.1.0"
	vnpayCommand    = "pay"
	vnpayTimeLayout = "20060102150405"
)

// VNPayAdapter implements the PaymentGateway port for VNPay.
// VNPay is redirect-only: the pay URL carries the whole signed order and
// the result comes back as a signed query string.
type VNPayAdapter struct {
	config *VNPayConfig
	now    func() time.Time
}

// NewVNPayAdapter creates a new VNPay adapter
func NewVNPayAdapter(config *VNPayConfig) (*VNPayAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &VNPayAdapter{
		config: config,
		now:    time.Now,
	}, nil
}

// Provider returns the gateway this adapter talks to
func (a *VNPayAdapter) Provider() billing.GatewayProvider {
	return billing.GatewayProviderVNPay
}

// BuildPaymentURL builds the signed redirect URL for the VNPay portal
func (a *VNPayAdapter) BuildPaymentURL(ctx context.Context, order *billing.PaymentOrder) (string, error) {
	returnURL := order.ReturnURL
	if returnURL == "" {
		returnURL = a.config.ReturnURL
	}

	// VNPay expresses VND amounts multiplied by 100
	amount := order.Amount.Mul(decimal.NewFromInt(100)).IntPart()

	params := map[string]string{
		"vnp_Version":    vnpayVersion,
		"vnp_Command":    vnpayCommand,
		"vnp_TmnCode":    a.config.TmnCode,
		"vnp_Amount":     fmt.Sprintf("%d", amount),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     order.BillNumber,
		"vnp_OrderInfo":  order.Description,
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  returnURL,
		"vnp_CreateDate": a.now().Format(vnpayTimeLayout),
	}

	query := buildVNPayQuery(params)
	secureHash := a.hmacSHA512(query)

	return a.config.PayURL + "?" + query + "&vnp_SecureHash=" + secureHash, nil
}

// VerifyCallback checks the secure hash on a return/IPN query string and
// normalizes it. A bad hash yields Verified == false, not an error.
func (a *VNPayAdapter) VerifyCallback(ctx context.Context, payload []byte) (*billing.PaymentEvent, error) {
	values, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, fmt.Errorf("vnpay: failed to parse callback query: %w", err)
	}

	receivedHash := values.Get("vnp_SecureHash")

	// The hash covers every vnp_ field except the hash fields themselves
	params := make(map[string]string)
	for key := range values {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		params[key] = values.Get(key)
	}
	expectedHash := a.hmacSHA512(buildVNPayQuery(params))

	responseCode := values.Get("vnp_ResponseCode")
	resultCode := 0
	fmt.Sscanf(responseCode, "%d", &resultCode)

	event := &billing.PaymentEvent{
		Provider:      billing.GatewayProviderVNPay,
		TransactionID: values.Get("vnp_TransactionNo"),
		BillNumber:    values.Get("vnp_TxnRef"),
		ResultCode:    resultCode,
		Success:       responseCode == "00",
		Verified:      receivedHash != "" && hmac.Equal([]byte(expectedHash), []byte(receivedHash)),
		RawPayload:    string(payload),
	}

	if raw := values.Get("vnp_Amount"); raw != "" {
		if amount, err := decimal.NewFromString(raw); err == nil {
			event.Amount = amount.Div(decimal.NewFromInt(100))
		}
	}

	if payDate := values.Get("vnp_PayDate"); payDate != "" {
		if t, err := time.Parse(vnpayTimeLayout, payDate); err == nil {
			event.PaidAt = &t
		}
	}

	return event, nil
}

// buildVNPayQuery builds the sorted, URL-encoded query string VNPay signs
func buildVNPayQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if params[key] != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(params[key]))
	}

	return strings.Join(parts, "&")
}

func (a *VNPayAdapter) hmacSHA512(data string) string {
	return hmacSHA512Hex(a.config.HashSecret, data)
}

func hmacSHA512Hex(key, data string) string {
	mac := hmac.New(sha512.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Ensure VNPayAdapter implements PaymentGateway
var _ billing.PaymentGateway = (*VNPayAdapter)(nil)
