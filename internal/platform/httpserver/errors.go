package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lkh0118/order-inventory/internal/platform/apperr"
	"github.com/lkh0118/order-inventory/internal/platform/logger"
)

// retryAfterSeconds is advertised on 503 responses for transient failures.
const retryAfterSeconds = "1"

// StatusFor maps an apperr kind onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrProductNotFound), errors.Is(err, apperr.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicateSKU), errors.Is(err, apperr.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrTimeout):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// WriteError renders err as {"error": ...}. Unclassified errors are logged and
// hidden behind fallback.
func WriteError(c *gin.Context, op string, err error, fallback string) {
	status := StatusFor(err)
	switch status {
	case http.StatusInternalServerError:
		logger.Error(op+": unhandled service error", err, "request_id", RequestIDFrom(c))
		c.JSON(status, gin.H{"error": fallback})
		return
	case http.StatusServiceUnavailable:
		c.Header("Retry-After", retryAfterSeconds)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// BadRequest answers a payload that failed gin binding.
func BadRequest(c *gin.Context, op string, err error) {
	logger.Warn(op+": bad request", "error", err, "request_id", RequestIDFrom(c))
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
}
