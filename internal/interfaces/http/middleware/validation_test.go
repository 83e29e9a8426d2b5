package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()
	SetupValidator() // idempotent

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestPeriodValidation(t *testing.T) {
	SetupValidator()
	gin.SetMode(gin.TestMode)

	type payload struct {
		Period string `json:"period" binding:"required,period"`
	}

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req payload
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		period string
		status int
	}{
		{"valid period", "2026-08", http.StatusOK},
		{"december", "2026-12", http.StatusOK},
		{"month out of range", "2026-13", http.StatusBadRequest},
		{"reversed order", "08-2026", http.StatusBadRequest},
		{"missing zero padding", "2026-8", http.StatusBadRequest},
		{"trailing garbage", "2026-081", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.NewReader(`{"period": "` + tt.period + `"}`)
			req := httptest.NewRequest(http.MethodPost, "/test", body)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}
