package txn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lkh0118/order-inventory/internal/platform/apperr"
	"github.com/lkh0118/order-inventory/internal/platform/logger"
)

type Policy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// Timeout bounds one logical operation across all of its attempts.
	Timeout time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseBackoff: 20 * time.Millisecond,
		MaxBackoff:  250 * time.Millisecond,
		Timeout:     5 * time.Second,
	}
}

type Coordinator struct {
	store  Store
	policy Policy
}

func NewCoordinator(store Store, policy Policy) *Coordinator {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Coordinator{store: store, policy: policy}
}

// Run executes fn in a read-write unit. Conflicts are retried with jittered
// exponential backoff up to MaxAttempts; every other failure aborts at once.
// Exhausted retries surface apperr.ErrConflict, an expired deadline
// apperr.ErrTimeout.
func (c *Coordinator) Run(ctx context.Context, op string, fn Func) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	attempts := 0
	operation := func() error {
		attempts++
		err := c.runOnce(ctx, Options{}, fn)
		if err == nil || apperr.IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("Txn.Run: conflict, retrying", "op", op, "attempt", attempts, "backoff", wait, "error", err)
	}

	err := backoff.RetryNotify(operation, c.newBackOff(ctx), notify)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s did not complete within %s", apperr.ErrTimeout, op, c.policy.Timeout)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %s cancelled by caller", apperr.ErrTimeout, op)
	case apperr.IsRetryable(err):
		logger.Warn("Txn.Run: giving up after conflicts", "op", op, "attempts", attempts)
		return fmt.Errorf("%s: gave up after %d attempts: %w", op, attempts, err)
	}
	return err
}

// Read executes fn once in a read-only snapshot unit.
func (c *Coordinator) Read(ctx context.Context, op string, fn Func) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	err := c.runOnce(ctx, Options{ReadOnly: true}, fn)
	switch {
	case err == nil, errors.Is(err, apperr.ErrTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s did not complete within %s", apperr.ErrTimeout, op, c.policy.Timeout)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %s cancelled by caller", apperr.ErrTimeout, op)
	}
	return err
}

func (c *Coordinator) runOnce(ctx context.Context, opts Options, fn Func) (err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	u, err := c.store.Begin(ctx, opts)
	if err != nil {
		return c.deadlineAware(ctx, err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := u.Rollback(); rbErr != nil {
			logger.Error("Txn: rollback failed", rbErr)
		}
	}()

	if err = fn(ctx, u); err != nil {
		return c.deadlineAware(ctx, err)
	}
	if err = u.Commit(); err != nil {
		return c.deadlineAware(ctx, err)
	}
	committed = true
	return nil
}

// deadlineAware turns any failure that happened after the operation deadline
// or a caller cancellation into a timeout, never a retryable conflict.
func (c *Coordinator) deadlineAware(ctx context.Context, err error) error {
	if ctx.Err() != nil && !errors.Is(err, apperr.ErrTimeout) {
		return fmt.Errorf("%w: %v", apperr.ErrTimeout, err)
	}
	return err
}

func (c *Coordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.policy.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.policy.Timeout)
}

func (c *Coordinator) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.policy.BaseBackoff
	exp.MaxInterval = c.policy.MaxBackoff
	exp.RandomizationFactor = 0.5
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.policy.MaxAttempts-1)), ctx)
}
