package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed
// fields. Returns the defaultField if the input is empty or not whitelisted.
// Order-by columns come straight from query strings, so everything funnels
// through here before being concatenated into SQL.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// BillSortFields contains allowed sort fields for bills
var BillSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"bill_number":  true,
	"bill_type":    true,
	"status":       true,
	"period":       true,
	"amount_due":   true,
	"amount_paid":  true,
	"billing_date": true,
	"paid_at":      true,
}

// RoomSortFields contains allowed sort fields for rooms
var RoomSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"code":         true,
	"floor":        true,
	"status":       true,
	"monthly_rent": true,
}

// CheckInSortFields contains allowed sort fields for check-ins
var CheckInSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"status":         true,
	"move_in_date":   true,
	"deposit_due_at": true,
}

// ContractSortFields contains allowed sort fields for contracts
var ContractSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"contract_number": true,
	"status":          true,
	"start_date":      true,
	"monthly_rent":    true,
}
