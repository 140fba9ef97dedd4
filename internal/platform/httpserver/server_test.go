package httpserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lkh0118/order-inventory/internal/platform/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: qty", apperr.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: A1", apperr.ErrProductNotFound), http.StatusNotFound},
		{apperr.ErrOrderNotFound, http.StatusNotFound},
		{apperr.ErrDuplicateSKU, http.StatusConflict},
		{fmt.Errorf("%w: A1", apperr.ErrInsufficientStock), http.StatusConflict},
		{fmt.Errorf("order.create: gave up: %w", apperr.ErrConflict), http.StatusServiceUnavailable},
		{apperr.ErrTimeout, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ping", func(c *gin.Context) {
		WriteError(c, "Ping", apperr.ErrConflict, "")
	})
	router.GET("/boom", func(c *gin.Context) {
		WriteError(c, "Boom", fmt.Errorf("driver exploded"), "Failed to ping")
	})
}

func TestNewRouter(t *testing.T) {
	router := NewRouter(pingHandler{})

	t.Run("Healthz", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	})

	t.Run("Request id is propagated", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		router.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
	})

	t.Run("Transient failures advertise Retry-After", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, retryAfterSeconds, w.Header().Get("Retry-After"))
	})

	t.Run("Unclassified errors are hidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Failed to ping"}`, w.Body.String())
	})
}
