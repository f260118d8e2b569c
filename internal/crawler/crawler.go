package crawler

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryInitialInterval is the first backoff step between attempts of a
// network call.
var retryInitialInterval = 500 * time.Millisecond

// withRetry runs op up to attempts times with exponential backoff. Errors
// wrapped with backoff.Permanent stop immediately.
func withRetry(ctx context.Context, attempts int, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx))
}
