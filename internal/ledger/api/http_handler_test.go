package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lkh0118/order-inventory/internal/ledger/domain"
	"github.com/lkh0118/order-inventory/internal/ledger/service/mocks"
	"github.com/lkh0118/order-inventory/internal/platform/apperr"
	"github.com/lkh0118/order-inventory/internal/platform/httpserver"
)

func TestStockHandler_AdjustStock(t *testing.T) {
	gin.SetMode(gin.TestMode)

	post := func(ls *mocks.MockLedgerService, body string) *httptest.ResponseRecorder {
		router := httpserver.NewRouter(NewStockHandler(ls))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/A1/adjust", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("Success", func(t *testing.T) {
		ls := new(mocks.MockLedgerService)
		ls.On("AdjustBySKU", mock.Anything, "A1", domain.AdjustStockRequest{Delta: 5, Reason: "restock"}).
			Return(&domain.AdjustStockResponse{SKU: "A1", Quantity: 5, MovementID: 1}, nil).Once()

		w := post(ls, `{"delta":5,"reason":"restock"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"sku":"A1","quantity":5,"movement_id":1}`, w.Body.String())
		ls.AssertExpectations(t)
	})

	t.Run("Exhausted retries are retryable for the caller", func(t *testing.T) {
		ls := new(mocks.MockLedgerService)
		ls.On("AdjustBySKU", mock.Anything, "A1", mock.Anything).
			Return(nil, fmt.Errorf("ledger.adjust: gave up after 3 attempts: %w", apperr.ErrConflict)).Once()

		w := post(ls, `{"delta":-1,"reason":"pick"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
	})

	t.Run("Zero delta never reaches the service", func(t *testing.T) {
		ls := new(mocks.MockLedgerService)
		w := post(ls, `{"delta":0,"reason":"noop"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		ls.AssertNotCalled(t, "AdjustBySKU", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Insufficient stock", func(t *testing.T) {
		ls := new(mocks.MockLedgerService)
		ls.On("AdjustBySKU", mock.Anything, "A1", mock.Anything).
			Return(nil, fmt.Errorf("%w: A1 (available 0, requested 1)", apperr.ErrInsufficientStock)).Once()

		w := post(ls, `{"delta":-1,"reason":"pick"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
