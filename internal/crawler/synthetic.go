package crawler

import (
	"context"
	"fmt"

	"merchingest/internal/logger"
	"merchingest/internal/model"
	"merchingest/internal/observability"
	"merchingest/internal/source"
)

type fixture struct {
	name        string
	price       string
	imageURL    string
	description string
	sizes       []string
	category    string
}

var fixtures = []fixture{
	{"T-shirt basique en coton", "12.99€", "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=800", "T-shirt 100% coton biologique, coupe regular", []string{"XS", "S", "M", "L", "XL"}, "T-shirts"},
	{"Jean slim fit noir", "39.99€", "https://images.unsplash.com/photo-1542272604-787c3835535d?w=800", "Jean slim en denim stretch confortable", []string{"28", "30", "32", "34", "36"}, "Jeans"},
	{"Chemise oxford blanche", "29.99€", "https://images.unsplash.com/photo-1596755094514-f87e34085b2c?w=800", "Chemise classique en coton oxford", []string{"S", "M", "L", "XL"}, "Chemises"},
	{"Pull col rond gris", "34.99€", "https://images.unsplash.com/photo-1576566588028-4147f3842f27?w=800", "Pull en laine mérinos, doux et chaud", []string{"S", "M", "L", "XL", "XXL"}, "Pulls"},
	{"Pantalon chino beige", "44.99€", "https://images.unsplash.com/photo-1473966968600-fa801b869a1a?w=800", "Chino coupe slim, tissu stretch", []string{"28", "30", "32", "34", "36"}, "Pantalons"},
	{"Veste en jean bleu", "59.99€", "https://images.unsplash.com/photo-1551028719-00167b16eac5?w=800", "Veste en denim classique, coupe regular", []string{"S", "M", "L", "XL"}, "Vestes"},
	{"Sweat à capuche noir", "39.99€", "https://images.unsplash.com/photo-1556821840-3a63f95609a7?w=800", "Sweat confortable en coton molletonné", []string{"S", "M", "L", "XL", "XXL"}, "Sweats"},
	{"Polo blanc classique", "24.99€", "https://images.unsplash.com/photo-1586790170083-2f9ceadc732d?w=800", "Polo en piqué de coton, col boutonné", []string{"S", "M", "L", "XL"}, "Polos"},
}

// SyntheticExtractor serves canned products so the pipeline can run
// without touching any merchant.
type SyntheticExtractor struct {
	desc source.Descriptor
	gate *Gate
	log  logger.Logger
}

func NewSynthetic(d source.Descriptor, opts Options) *SyntheticExtractor {
	opts = opts.withDefaults()
	return &SyntheticExtractor{
		desc: d,
		gate: NewGate(d.RateLimit, opts.Clock),
		log:  opts.Logger,
	}
}

func (e *SyntheticExtractor) ScrapeCategory(ctx context.Context, category string, limit int) []model.ProductRecord {
	n := min(limit, len(fixtures))
	e.log.Info("generating synthetic products", logger.String("category", category), logger.Int("count", max(n, 0)))

	var products []model.ProductRecord
	for i := 0; i < n; i++ {
		if err := e.gate.Wait(ctx); err != nil {
			e.log.Warn("synthetic extraction interrupted", logger.Error(err))
			break
		}

		f := fixtures[i]
		rec, err := Normalize(e.desc, model.RawProduct{
			Name:        f.name,
			Brand:       e.desc.Name,
			Price:       f.price,
			ImageURL:    f.imageURL,
			ItemURL:     fmt.Sprintf("%s/fr/fr/product-%d.html", e.desc.BaseURL, 1000+i),
			Sizes:       f.sizes,
			Description: f.description,
			Category:    f.category,
		})
		if err != nil {
			observability.ProductsDiscarded.WithLabelValues(e.desc.Key).Inc()
			e.log.Warn("discarded product", logger.String("name", f.name), logger.Error(err))
			continue
		}
		observability.ProductsExtracted.WithLabelValues(e.desc.Key).Inc()
		e.log.Info("product extracted",
			logger.Int("position", i+1),
			logger.String("name", rec.Name),
			logger.String("price", rec.Price))
		products = append(products, rec)
	}
	return products
}

// ScrapeItem has nothing to look up for synthetic sources.
func (e *SyntheticExtractor) ScrapeItem(context.Context, string) (model.ProductRecord, bool) {
	return model.ProductRecord{}, false
}

func (e *SyntheticExtractor) Close() error { return nil }
