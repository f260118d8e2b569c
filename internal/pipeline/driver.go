// Package pipeline runs one ingestion: resolve the source, extract a
// category and publish what came out.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merchingest/internal/crawler"
	"merchingest/internal/logger"
	"merchingest/internal/model"
	"merchingest/internal/publisher"
	"merchingest/internal/source"
)

// DefaultLimit is the product count the CLI asks for when --limit is not set.
// A zero Request.Limit means zero products.
const DefaultLimit = 10

var (
	ErrSourceUnavailable = errors.New("unknown or disabled source")
	ErrUnknownCategory   = errors.New("category not declared by source")
	ErrInvalidLimit      = errors.New("limit must not be negative")
)

type Request struct {
	SourceKey string
	Category  string
	Limit     int
	DryRun    bool
	Filters   crawler.Filters
}

// Summary is the outcome of a run together with the resolved request.
type Summary struct {
	Requested Request
	Extracted int
	Success   int
	Errors    int
	Skipped   int
}

// Publisher is the part of publisher.Publisher the driver needs.
type Publisher interface {
	CreatePosts(ctx context.Context, products []model.ProductRecord, dryRun bool) publisher.Result
}

type ExtractorFactory func(d source.Descriptor, opts crawler.Options) (crawler.Extractor, error)

type Driver struct {
	registry  *source.Registry
	publisher Publisher
	options   crawler.Options
	log       logger.Logger

	// NewExtractor builds the extractor of a run. Defaults to crawler.New.
	NewExtractor ExtractorFactory
}

// New returns a driver. opts is the extractor configuration shared by every
// run; request filters are added to it.
func New(reg *source.Registry, pub Publisher, opts crawler.Options, log logger.Logger) *Driver {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = log
	}
	return &Driver{
		registry:     reg,
		publisher:    pub,
		options:      opts,
		log:          log,
		NewExtractor: crawler.New,
	}
}

// Run extracts req.Category from req.SourceKey and publishes the result.
// Source and request errors are returned before anything is extracted;
// failures on single products only show in the summary counts.
func (d *Driver) Run(ctx context.Context, req Request) (Summary, error) {
	if req.SourceKey == "" {
		req.SourceKey = source.DefaultKey
	}
	summary := Summary{Requested: req}

	if req.Limit < 0 {
		return summary, fmt.Errorf("%w: %d", ErrInvalidLimit, req.Limit)
	}

	desc, ok := d.registry.Get(req.SourceKey)
	if !ok {
		d.log.Error("source unavailable", logger.String("source", req.SourceKey))
		return summary, fmt.Errorf("%w: %q", ErrSourceUnavailable, req.SourceKey)
	}
	if req.Category == "" && len(desc.Categories) > 0 {
		req.Category = desc.Categories[0]
		summary.Requested = req
	}
	if !desc.HasCategory(req.Category) {
		return summary, fmt.Errorf("%w: %q not in %v", ErrUnknownCategory, req.Category, desc.Categories)
	}

	if req.Limit == 0 {
		d.log.Info("nothing to extract", logger.String("source", desc.Key), logger.Int("limit", 0))
		return summary, nil
	}

	if desc.Kind != source.KindStatic && req.Filters != (crawler.Filters{}) {
		d.log.Warn("listing filters ignored",
			logger.String("source", desc.Key),
			logger.String("kind", string(desc.Kind)),
		)
	}

	opts := d.options
	opts.Filters = req.Filters
	ex, err := d.NewExtractor(desc, opts)
	if err != nil {
		return summary, fmt.Errorf("create extractor for %s: %w", desc.Key, err)
	}
	defer func() {
		if err := ex.Close(); err != nil {
			d.log.Warn("extractor close failed", logger.String("source", desc.Key), logger.Error(err))
		}
	}()

	log := d.log.With(logger.String("source", desc.Key), logger.String("category", req.Category))
	log.Info("run started", logger.Int("limit", req.Limit), logger.Bool("dry_run", req.DryRun))
	started := time.Now()

	products := ex.ScrapeCategory(ctx, req.Category, req.Limit)
	summary.Extracted = len(products)
	log.Info("extraction finished", logger.Int("products", len(products)))

	res := d.publisher.CreatePosts(ctx, products, req.DryRun)
	summary.Success = res.Success
	summary.Errors = res.Errors
	summary.Skipped = res.Skipped

	log.Info("run finished",
		logger.Int("extracted", summary.Extracted),
		logger.Int("success", summary.Success),
		logger.Int("errors", summary.Errors),
		logger.Int("skipped", summary.Skipped),
		logger.Duration("took", time.Since(started)),
	)

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run interrupted: %w", err)
	}
	return summary, nil
}
