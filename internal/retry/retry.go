// Package retry runs upstream calls under a per-attempt timeout, retrying
// idempotent ones with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// Policy bounds every upstream call.
type Policy struct {
	MaxAttempts int
	Initial     time.Duration
	MaxInterval time.Duration
	CallTimeout time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Initial:     200 * time.Millisecond,
		MaxInterval: 2 * time.Second,
		CallTimeout: 10 * time.Second,
	}
}

// Do runs an idempotent call, retrying upstream failures up to MaxAttempts.
// Domain errors other than upstream ones, and errors marked with Permanent,
// stop the loop immediately.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	if p.Initial > 0 {
		b.InitialInterval = p.Initial
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0
	b.Reset()

	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)

	err := backoff.Retry(func() error {
		err := p.attempt(ctx, fn)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bo)

	return classify(op, err)
}

// Once runs a non-idempotent call a single time under the call timeout.
func Once(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	return classify(op, p.attempt(ctx, fn))
}

func (p Policy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.CallTimeout <= 0 {
		return fn(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.CallTimeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		return nil
	}
	// the caller's own deadline is not an upstream timeout
	if ctx.Err() == nil && (errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)) {
		return domain.ErrUpstreamTimeout.WithError(err)
	}
	return err
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so Do gives up on it after the first attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr.Code == domain.ErrUpstream.Code || appErr.Code == domain.ErrUpstreamTimeout.Code
	}
	return true
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrUpstreamTimeout.WithError(fmt.Errorf("%s: %w", op, err))
	}
	return domain.ErrUpstream.WithError(fmt.Errorf("%s: %w", op, err))
}
