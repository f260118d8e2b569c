package publisher

import (
	"context"

	"merchingest/internal/model"
)

// DataStore persists rows into named collections.
type DataStore interface {
	// Insert stores row and returns it as stored, including its id.
	Insert(ctx context.Context, collection string, row model.Row) (model.Row, error)
	// InsertMany stores rows in a single call.
	InsertMany(ctx context.Context, collection string, rows []model.Row) ([]model.Row, error)
	// Select returns the rows whose columns equal every value of filter.
	Select(ctx context.Context, collection string, filter model.Row) ([]model.Row, error)
}

// ObjectStore holds uploaded images.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PublicURL(key string) string
}

// IdentityProvider creates the account the bot posts under.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, displayName string) (string, error)
}

// Ledger records item addresses that were already published.
type Ledger interface {
	Seen(ctx context.Context, itemURL string) (bool, error)
	Mark(ctx context.Context, itemURL string) error
}
