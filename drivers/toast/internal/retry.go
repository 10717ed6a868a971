package driver

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy wraps every upstream call. MaxAttempts and MaxElapsedTime of
// zero mean no limit, the call is retried until it succeeds or the context ends.
type RetryPolicy struct {
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
	MaxAttempts     int
	MaxElapsedTime  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: time.Second,
		Multiplier:      2,
		MaxInterval:     5 * time.Minute,
	}
}

// NewBackOff builds a fresh backoff for one call
func (p RetryPolicy) NewBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.Multiplier = p.Multiplier
	exp.MaxInterval = p.MaxInterval
	exp.MaxElapsedTime = p.MaxElapsedTime
	exp.Reset()

	var policy backoff.BackOff = exp
	if p.MaxAttempts > 0 {
		policy = backoff.WithMaxRetries(policy, uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(policy, ctx)
}
