package leasing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Tenant is one person named on a contract
type Tenant struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	IDNumber string `json:"id_number,omitempty"` // national ID card number
}

// Validate checks the tenant record
func (t *Tenant) Validate() error {
	if strings.TrimSpace(t.FullName) == "" {
		return NewValidationError("tenant full name is required")
	}
	return nil
}

// Tenants is stored as JSONB on the contract row
type Tenants []Tenant

// Value implements driver.Valuer
func (t Tenants) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner
func (t *Tenants) Scan(value any) error {
	if value == nil {
		*t = Tenants{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into Tenants", value)
		}
	}
	return json.Unmarshal(bytes, t)
}
