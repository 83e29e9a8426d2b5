package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newBodyLimitRouter(maxBytes int64) *gin.Engine {
	router := gin.New()
	router.Use(BodyLimit(maxBytes))
	router.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("small body passes", func(t *testing.T) {
		router := newBodyLimitRouter(64)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok")))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("declared oversize body is rejected up front", func(t *testing.T) {
		router := newBodyLimitRouter(4)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way too big")))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_REQUEST_TOO_LARGE")
	})

	t.Run("streamed body is capped while reading", func(t *testing.T) {
		router := newBodyLimitRouter(4)
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way too big"))
		req.ContentLength = -1 // unknown length, bypasses the up-front check
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
