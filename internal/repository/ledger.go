package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const ledgerPrefix = "merchingest:published:"

// Ledger remembers in Redis which item addresses were already published.
// A zero TTL keeps entries forever.
type Ledger struct {
	Client *redis.Client
	TTL    time.Duration
}

func (l *Ledger) Seen(ctx context.Context, itemURL string) (bool, error) {
	n, err := l.Client.Exists(ctx, ledgerPrefix+itemURL).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records itemURL. The first publish time is kept when called twice.
func (l *Ledger) Mark(ctx context.Context, itemURL string) error {
	return l.Client.SetNX(ctx, ledgerPrefix+itemURL, time.Now().UTC().Format(time.RFC3339), l.TTL).Err()
}
