package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeRoomUnavailable, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeUnverifiedPayment, http.StatusBadRequest},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{"ERR_NOBODY_KNOWS_THIS", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GetHTTPStatus(tc.code), tc.code)
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeAlreadyExists, NormalizeErrorCode("DUPLICATE_BILLING_PERIOD"))
	assert.Equal(t, ErrCodeInvalidState, NormalizeErrorCode("INVALID_STATE_TRANSITION"))

	// already-normalized and unknown codes pass through
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "SOMETHING_ELSE", NormalizeErrorCode("SOMETHING_ELSE"))
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	cases := []struct {
		total     int64
		pageSize  int
		wantPages int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 25, 4},
	}
	for _, tc := range cases {
		resp := NewSuccessResponseWithMeta(nil, tc.total, 1, tc.pageSize)
		assert.Equal(t, tc.wantPages, resp.Meta.TotalPages)
		assert.Equal(t, tc.total, resp.Meta.Total)
	}
}
