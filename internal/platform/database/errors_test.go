package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/lkh0118/order-inventory/internal/platform/apperr"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"pgx unique violation", &pgconn.PgError{Code: "23505"}, apperr.ErrDuplicateSKU},
		{"pq unique violation", &pq.Error{Code: "23505"}, apperr.ErrDuplicateSKU},
		{"check violation", &pgconn.PgError{Code: "23514"}, apperr.ErrInsufficientStock},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, apperr.ErrConflict},
		{"deadlock", &pq.Error{Code: "40P01"}, apperr.ErrConflict},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, apperr.ErrTimeout},
		{"statement timeout", &pq.Error{Code: "57014"}, apperr.ErrTimeout},
		{"wrapped driver error", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40001"}), apperr.ErrConflict},
		{"context deadline", context.DeadlineExceeded, apperr.ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tt.err), tt.want)
		})
	}

	t.Run("unknown errors pass through", func(t *testing.T) {
		plain := errors.New("connection reset")
		assert.Same(t, plain, Classify(plain))
		assert.NoError(t, Classify(nil))
	})
}
