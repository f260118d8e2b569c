package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Post outcomes used as the "outcome" label of PostsTotal.
const (
	OutcomePublished = "published"
	OutcomePartial   = "partial"
	OutcomeFailed    = "failed"
	OutcomeDryRun    = "dry_run"
	OutcomeSkipped   = "skipped"
)

var (
	ProductsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merchingest_products_extracted_total",
			Help: "Products that passed normalization",
		},
		[]string{"source"},
	)
	ProductsDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merchingest_products_discarded_total",
			Help: "Products dropped during extraction or normalization",
		},
		[]string{"source"},
	)
	PostsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merchingest_posts_total",
			Help: "Publish attempts by outcome",
		},
		[]string{"outcome"},
	)
	ExtractDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "merchingest_extract_duration_seconds",
			Help:    "Duration of a category extraction",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"source"},
	)
)

// Register adds the pipeline collectors to reg. Already registered
// collectors are tolerated so Register can be called more than once.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{ProductsExtracted, ProductsDiscarded, PostsTotal, ExtractDuration} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Start serves /metrics on port in the background. An empty port disables it.
func Start(port string) error {
	if port == "" {
		return nil
	}
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go srv.ListenAndServe()
	return nil
}
