package payment

import "errors"

const zalopayDefaultEndpoint = "https://openapi.zalopay.vn/v2/create"

// ZaloPayConfig contains credentials for the ZaloPay v2 API
type ZaloPayConfig struct {
	// AppID is the application ID issued by ZaloPay
	AppID string
	// Key1 signs outgoing create-order requests
	Key1 string
	// Key2 verifies incoming callbacks
	Key2 string
	// Endpoint is the create-order API endpoint
	Endpoint string
}

// Errors for configuration validation
var (
	ErrZaloPayMissingAppID = errors.New("zalopay: missing app ID")
	ErrZaloPayMissingKey1  = errors.New("zalopay: missing key1")
	ErrZaloPayMissingKey2  = errors.New("zalopay: missing key2")
)

// Validate validates the configuration
func (c *ZaloPayConfig) Validate() error {
	if c.AppID == "" {
		return ErrZaloPayMissingAppID
	}
	if c.Key1 == "" {
		return ErrZaloPayMissingKey1
	}
	if c.Key2 == "" {
		return ErrZaloPayMissingKey2
	}
	if c.Endpoint == "" {
		c.Endpoint = zalopayDefaultEndpoint
	}
	return nil
}
