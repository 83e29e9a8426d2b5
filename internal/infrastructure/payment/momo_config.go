package payment

import "errors"

const momoDefaultEndpoint = "https://payment.momo.vn/v2/gateway/api/create"

// MoMoConfig contains credentials for the MoMo v2 payment API
type MoMoConfig struct {
	// PartnerCode is the merchant code issued by MoMo
	PartnerCode string
	// AccessKey is the public access key for request signing
	AccessKey string
	// SecretKey is the HMAC-SHA256 signing secret
	SecretKey string
	// Endpoint is the create-payment API endpoint
	Endpoint string
	// ReturnURL is the default redirect URL after payment
	ReturnURL string
	// NotifyURL is the default IPN callback URL
	NotifyURL string
}

// Errors for configuration validation
var (
	ErrMoMoMissingPartnerCode = errors.New("momo: missing partner code")
	ErrMoMoMissingAccessKey   = errors.New("momo: missing access key")
	ErrMoMoMissingSecretKey   = errors.New("momo: missing secret key")
	ErrMoMoMissingNotifyURL   = errors.New("momo: missing notify URL")
)

// Validate validates the configuration
func (c *MoMoConfig) Validate() error {
	if c.PartnerCode == "" {
		return ErrMoMoMissingPartnerCode
	}
	if c.AccessKey == "" {
		return ErrMoMoMissingAccessKey
	}
	if c.SecretKey == "" {
		return ErrMoMoMissingSecretKey
	}
	if c.NotifyURL == "" {
		return ErrMoMoMissingNotifyURL
	}
	if c.Endpoint == "" {
		c.Endpoint = momoDefaultEndpoint
	}
	return nil
}
