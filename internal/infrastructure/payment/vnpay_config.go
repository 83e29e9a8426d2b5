package payment

import "errors"

const vnpayDefaultPayURL = "https://pay.vnpay.vn/vpcpay.html"

// VNPayConfig contains credentials for the VNPay payment portal
type VNPayConfig struct {
	// TmnCode is the terminal code issued by VNPay
	TmnCode string
	// HashSecret is the HMAC-SHA512 signing secret
	HashSecret string
	// PayURL is the payment portal URL the customer is redirected to
	PayURL string
	// ReturnURL is the default redirect URL after payment
	ReturnURL string
}

// Errors for configuration validation
var (
	ErrVNPayMissingTmnCode    = errors.New("vnpay: missing terminal code")
	ErrVNPayMissingHashSecret = errors.New("vnpay: missing hash secret")
	ErrVNPayMissingReturnURL  = errors.New("vnpay: missing return URL")
)

// Validate validates the configuration
func (c *VNPayConfig) Validate() error {
	if c.TmnCode == "" {
		return ErrVNPayMissingTmnCode
	}
	if c.HashSecret == "" {
		return ErrVNPayMissingHashSecret
	}
	if c.ReturnURL == "" {
		return ErrVNPayMissingReturnURL
	}
	if c.PayURL == "" {
		c.PayURL = vnpayDefaultPayURL
	}
	return nil
}
