package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/gocolly/colly/v2"

	"merchingest/internal/logger"
	"merchingest/internal/model"
	"merchingest/internal/observability"
	"merchingest/internal/source"
)

// StaticExtractor reads merchants whose listing pages are served as plain
// HTML. Products are taken straight from the listing cards.
type StaticExtractor struct {
	desc      source.Descriptor
	gate      *Gate
	log       logger.Logger
	retries   int
	filters   Filters
	collector *colly.Collector
}

func NewStatic(d source.Descriptor, opts Options) (*StaticExtractor, error) {
	opts = opts.withDefaults()
	if err := opts.Filters.Validate(); err != nil {
		return nil, err
	}

	collectorOpts := []colly.CollectorOption{colly.AllowURLRevisit()}
	if opts.UserAgent != "" {
		collectorOpts = append(collectorOpts, colly.UserAgent(opts.UserAgent))
	}
	c := colly.NewCollector(collectorOpts...)
	c.SetRequestTimeout(opts.Timeout)

	return &StaticExtractor{
		desc:      d,
		gate:      NewGate(d.RateLimit, opts.Clock),
		log:       opts.Logger,
		retries:   opts.Retries,
		filters:   opts.Filters,
		collector: c,
	}, nil
}

// ListingURL is the category address with the listing filters applied.
func (e *StaticExtractor) ListingURL(category string) string {
	u := e.desc.ListingURL(category)
	if q := e.filters.Query(); len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (e *StaticExtractor) ScrapeCategory(ctx context.Context, category string, limit int) []model.ProductRecord {
	if limit <= 0 {
		return nil
	}
	started := time.Now()
	defer func() {
		observability.ExtractDuration.WithLabelValues(e.desc.Key).Observe(time.Since(started).Seconds())
	}()

	listing := e.ListingURL(category)
	e.log.Info("scraping category", logger.String("category", category), logger.String("url", listing))

	doc, err := e.document(ctx, listing)
	if err != nil {
		e.log.Error("category listing unavailable", logger.String("url", listing), logger.Error(err))
		return nil
	}

	cards := doc.Find(e.desc.Locators.List)
	e.log.Info("found product cards", logger.Int("cards", cards.Length()))

	var products []model.ProductRecord
	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		if len(products) >= limit || ctx.Err() != nil {
			return false
		}
		rec, err := Normalize(e.desc, e.fromCard(card))
		if err != nil {
			observability.ProductsDiscarded.WithLabelValues(e.desc.Key).Inc()
			e.log.Warn("discarded product", logger.Int("position", i+1), logger.Error(err))
			return true
		}
		observability.ProductsExtracted.WithLabelValues(e.desc.Key).Inc()
		e.log.Info("product extracted", logger.String("name", rec.Name), logger.String("price", rec.Price))
		products = append(products, rec)
		return true
	})
	return products
}

func (e *StaticExtractor) ScrapeItem(ctx context.Context, address string) (model.ProductRecord, bool) {
	address = NormalizeURL(e.desc.BaseURL, address)

	doc, err := e.document(ctx, address)
	if err != nil {
		observability.ProductsDiscarded.WithLabelValues(e.desc.Key).Inc()
		e.log.Warn("product page unavailable", logger.String("url", address), logger.Error(err))
		return model.ProductRecord{}, false
	}

	raw := parseSelection(doc.Selection, e.desc.Locators)
	raw.ItemURL = address
	raw.ImageURL = e.trimCDNQuery(raw.ImageURL)

	rec, err := Normalize(e.desc, raw)
	if err != nil {
		observability.ProductsDiscarded.WithLabelValues(e.desc.Key).Inc()
		e.log.Warn("discarded product", logger.String("url", address), logger.Error(err))
		return model.ProductRecord{}, false
	}
	observability.ProductsExtracted.WithLabelValues(e.desc.Key).Inc()
	return rec, true
}

func (e *StaticExtractor) Close() error { return nil }

func (e *StaticExtractor) fromCard(card *goquery.Selection) model.RawProduct {
	raw := parseSelection(card, e.desc.Locators)
	raw.ItemURL, _ = card.Find(e.desc.Locators.Link).First().Attr("href")
	raw.ImageURL = e.trimCDNQuery(raw.ImageURL)

	if raw.Description == "" && cleanText(raw.Name) != "" {
		brand := cleanText(raw.Brand)
		if brand == "" {
			brand = e.desc.Name
		}
		raw.Description = brand + " - " + cleanText(raw.Name)
	}
	return raw
}

// trimCDNQuery drops resizing parameters so the full size image is kept.
func (e *StaticExtractor) trimCDNQuery(image string) string {
	if e.desc.CDNHost == "" || !strings.Contains(image, e.desc.CDNHost) {
		return image
	}
	base, _, _ := strings.Cut(image, "?")
	return base
}

func (e *StaticExtractor) document(ctx context.Context, address string) (*goquery.Document, error) {
	body, err := e.fetch(ctx, address)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// fetch retries transient failures. Client errors other than 408 and 429
// are final.
func (e *StaticExtractor) fetch(ctx context.Context, address string) ([]byte, error) {
	var body []byte
	err := withRetry(ctx, e.retries, func() error {
		if err := e.gate.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		c := e.collector.Clone()
		status := 0
		c.OnRequest(func(r *colly.Request) {
			r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
			r.Headers.Set("Accept-Language", "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7")
		})
		c.OnResponse(func(r *colly.Response) {
			body = r.Body
		})
		c.OnError(func(r *colly.Response, _ error) {
			if r != nil {
				status = r.StatusCode
			}
		})

		if err := c.Visit(address); err != nil {
			err = fmt.Errorf("fetch %s: %w", address, err)
			if status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	})
	return body, err
}
