// Package backoff retries provider calls with capped exponential backoff.
package backoff

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy controls Do. Zero values fall back to Default.
type Policy struct {
	Retries uint64
	Base    time.Duration
	Max     time.Duration
}

// Default retries three times starting at 2s, never waiting more than 20s.
var Default = Policy{Retries: 3, Base: 2 * time.Second, Max: 20 * time.Second}

// Permanent marks an error that must not be retried.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Do runs fn until it succeeds, returns a Permanent error, the context ends or
// the retries are spent.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.Base <= 0 {
		p.Base = Default.Base
	}
	if p.Max <= 0 {
		p.Max = Default.Max
	}
	b := retry.NewExponential(p.Base)
	b = retry.WithCappedDuration(p.Max, b)
	b = retry.WithMaxRetries(p.Retries, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctx.Err() != nil {
			return err
		}
		return retry.RetryableError(err)
	})
}
