// Package crawler extracts product records from merchant catalogs.
package crawler

import (
	"context"
	"fmt"
	"time"

	"merchingest/internal/clock"
	"merchingest/internal/logger"
	"merchingest/internal/model"
	"merchingest/internal/source"
)

// Extractor produces normalized products for one source. Failures on a
// single item or listing are logged and never returned to the caller.
type Extractor interface {
	// ScrapeCategory returns at most limit products in discovery order.
	ScrapeCategory(ctx context.Context, category string, limit int) []model.ProductRecord
	// ScrapeItem returns false when the item cannot be fetched or is incomplete.
	ScrapeItem(ctx context.Context, address string) (model.ProductRecord, bool)
	// Close releases resources held by the extractor. It is safe to call twice.
	Close() error
}

type Options struct {
	Logger    logger.Logger
	Clock     clock.Clock
	UserAgent string
	Timeout   time.Duration
	Retries   int
	Headless  bool
	Filters   Filters
	// Browser replaces the headless Chrome session of browser sources.
	Browser Browser
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.NewNop()
	}
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Retries <= 0 {
		o.Retries = 1
	}
	return o
}

// New returns the extractor matching the kind of source d.
func New(d source.Descriptor, opts Options) (Extractor, error) {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.With(logger.String("source", d.Key))

	switch d.Kind {
	case source.KindSynthetic:
		return NewSynthetic(d, opts), nil
	case source.KindBrowser:
		return NewBrowserExtractor(d, opts), nil
	case source.KindStatic:
		return NewStatic(d, opts)
	default:
		return nil, fmt.Errorf("no extractor for source kind %q", d.Kind)
	}
}
