package crawler

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"merchingest/internal/clock"
)

// Gate spaces the requests of a single extractor by a minimum interval.
// Each extractor owns its gate; gates never coordinate with each other.
type Gate struct {
	limiter *rate.Limiter
	clock   clock.Clock
}

func NewGate(interval time.Duration, c clock.Clock) *Gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if c == nil {
		c = clock.Real{}
	}
	return &Gate{limiter: rate.NewLimiter(limit, 1), clock: c}
}

// Wait blocks until the interval since the previous request has elapsed.
func (g *Gate) Wait(ctx context.Context) error {
	now := g.clock.Now()
	r := g.limiter.ReserveN(now, 1)
	if !r.OK() {
		return errors.New("rate limit reservation refused")
	}
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	if err := g.clock.Sleep(ctx, delay); err != nil {
		r.CancelAt(g.clock.Now())
		return err
	}
	return nil
}
