package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/metrics"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/sentinel"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/requestcontext"
)

// RetryPolicy bounds how often a placement is re-attempted after losing a slot
// race or hitting a transient store error.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts < 1 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = def.InitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = def.MaxInterval
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = p.InitialInterval
	}
	return p
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1)), ctx)
}

// retryReason classifies errors worth another full resolve-then-write attempt.
// A duplicate position is retried too: the next attempt observes the committed
// row and reports the agent as already placed.
func retryReason(err error) (string, bool) {
	switch {
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrAlreadyUsed):
		return metrics.RetrySlotConflict, true
	case errors.Is(err, sentinel.ErrUnavailable):
		return metrics.RetryUnavailable, true
	}
	return "", false
}

// withRetry runs op until it succeeds, fails permanently, or the policy is
// exhausted. It returns the number of attempts made.
func (s *Service) withRetry(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	attempts := 0
	operation := func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if _, ok := retryReason(err); ok {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		reason, _ := retryReason(err)
		s.metrics.IncrementRetry(reason)
		s.logger.DebugContext(ctx, "retrying placement",
			"request_id", requestcontext.RequestID(ctx),
			"attempt", attempts,
			"reason", reason,
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)
	}
	err := backoff.RetryNotify(operation, s.retry.backOff(ctx), notify)
	return attempts, err
}
