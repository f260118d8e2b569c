package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"merchingest/internal/logger"
	"merchingest/internal/model"
	"merchingest/internal/observability"
	"merchingest/internal/source"
)

// BrowserExtractor drives a browser through a merchant's listing and item
// pages. The browser is started lazily and released by Close.
type BrowserExtractor struct {
	desc    source.Descriptor
	browser Browser
	gate    *Gate
	log     logger.Logger
	retries int
}

func NewBrowserExtractor(d source.Descriptor, opts Options) *BrowserExtractor {
	opts = opts.withDefaults()
	b := opts.Browser
	if b == nil {
		b = NewChromeBrowser(opts.Headless, opts.UserAgent, opts.Timeout)
	}
	return &BrowserExtractor{
		desc:    d,
		browser: b,
		gate:    NewGate(d.RateLimit, opts.Clock),
		log:     opts.Logger,
		retries: opts.Retries,
	}
}

func (e *BrowserExtractor) ScrapeCategory(ctx context.Context, category string, limit int) []model.ProductRecord {
	if limit <= 0 {
		return nil
	}
	started := time.Now()
	defer func() {
		observability.ExtractDuration.WithLabelValues(e.desc.Key).Observe(time.Since(started).Seconds())
	}()

	listing := e.desc.ListingURL(category)
	e.log.Info("scraping category", logger.String("category", category), logger.String("url", listing))

	html, err := e.render(ctx, listing, e.desc.Locators.List)
	if err != nil {
		e.log.Error("category listing unavailable", logger.String("url", listing), logger.Error(err))
		return nil
	}
	links, err := ParseLinks(html, e.desc)
	if err != nil {
		e.log.Error("category listing unreadable", logger.String("url", listing), logger.Error(err))
		return nil
	}
	e.log.Info("found products", logger.Int("links", len(links)))

	var products []model.ProductRecord
	for i, link := range links {
		if len(products) >= limit || ctx.Err() != nil {
			break
		}
		e.log.Debug("scraping product", logger.Int("position", i+1), logger.String("url", link))
		if rec, ok := e.ScrapeItem(ctx, link); ok {
			products = append(products, rec)
		}
	}
	return products
}

func (e *BrowserExtractor) ScrapeItem(ctx context.Context, address string) (model.ProductRecord, bool) {
	address = NormalizeURL(e.desc.BaseURL, address)

	html, err := e.render(ctx, address, e.desc.Locators.Title)
	if err != nil {
		observability.ProductsDiscarded.WithLabelValues(e.desc.Key).Inc()
		e.log.Warn("product page unavailable", logger.String("url", address), logger.Error(err))
		return model.ProductRecord{}, false
	}
	raw, err := ParseItem(html, e.desc.Locators)
	if err != nil {
		observability.ProductsDiscarded.WithLabelValues(e.desc.Key).Inc()
		e.log.Warn("product page unreadable", logger.String("url", address), logger.Error(err))
		return model.ProductRecord{}, false
	}
	raw.ItemURL = address
	if raw.Brand == "" {
		raw.Brand = e.desc.Name
	}

	rec, err := Normalize(e.desc, raw)
	if err != nil {
		observability.ProductsDiscarded.WithLabelValues(e.desc.Key).Inc()
		e.log.Warn("discarded product", logger.String("url", address), logger.Error(err))
		return model.ProductRecord{}, false
	}
	observability.ProductsExtracted.WithLabelValues(e.desc.Key).Inc()
	e.log.Info("product extracted", logger.String("name", rec.Name), logger.String("price", rec.Price))
	return rec, true
}

func (e *BrowserExtractor) Close() error {
	return e.browser.Close()
}

// render waits for the rate limit before every attempt.
func (e *BrowserExtractor) render(ctx context.Context, address, waitFor string) (string, error) {
	var html string
	err := withRetry(ctx, e.retries, func() error {
		if err := e.gate.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		var err error
		html, err = e.browser.Render(ctx, address, waitFor)
		if errors.Is(err, errBrowserClosed) {
			return backoff.Permanent(err)
		}
		return err
	})
	return html, err
}
