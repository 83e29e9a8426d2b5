package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	assert.Equal(t, "ASC", ValidateSortOrder("asc"))
	assert.Equal(t, "ASC", ValidateSortOrder("  ASC "))
	assert.Equal(t, "DESC", ValidateSortOrder("desc"))
	assert.Equal(t, "DESC", ValidateSortOrder(""))
	assert.Equal(t, "DESC", ValidateSortOrder("ascending; DROP TABLE bills"))
}

func TestValidateSortField(t *testing.T) {
	t.Run("accepts whitelisted fields", func(t *testing.T) {
		assert.Equal(t, "bill_number", ValidateSortField("bill_number", BillSortFields, "created_at"))
		assert.Equal(t, "deposit_due_at", ValidateSortField("deposit_due_at", CheckInSortFields, "created_at"))
	})

	t.Run("falls back to the default for anything else", func(t *testing.T) {
		assert.Equal(t, "created_at", ValidateSortField("", BillSortFields, "created_at"))
		assert.Equal(t, "created_at", ValidateSortField("amount_due; --", BillSortFields, "created_at"))
		assert.Equal(t, "code", ValidateSortField("monthly_rent DESC", RoomSortFields, "code"))
	})
}
