package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"merchingest/internal/config"
	"merchingest/internal/crawler"
	"merchingest/internal/logger"
	"merchingest/internal/observability"
	"merchingest/internal/pipeline"
	"merchingest/internal/publisher"
	"merchingest/internal/source"
)

type runOptions struct {
	source      string
	category    string
	limit       int
	dryRun      bool
	brand       string
	newArrivals int
	priceFrom   int
	priceTo     int
	order       string
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extracts one category of a source and publishes the products.",
	Args:  cobra.NoArgs,
	RunE:  runIngestion,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.source, "source", source.DefaultKey, "source key, see `crawler sources`")
	f.StringVar(&runOpts.category, "category", "", "category to extract (default: first category of the source)")
	f.IntVar(&runOpts.limit, "limit", pipeline.DefaultLimit, "maximum number of products")
	f.BoolVar(&runOpts.dryRun, "dry-run", false, "log the posts instead of creating them")
	f.StringVar(&runOpts.brand, "brand", "", "only this brand (static sources)")
	f.IntVar(&runOpts.newArrivals, "new-arrivals", 0, "only products added in the last N days (static sources)")
	f.IntVar(&runOpts.priceFrom, "price-from", 0, "minimum price (static sources)")
	f.IntVar(&runOpts.priceTo, "price-to", 0, "maximum price (static sources)")
	f.StringVar(&runOpts.order, "order", "", "sale, popularity, price_asc, price_desc or newest (static sources)")

	// `crawler --source zara` behaves like `crawler run --source zara`
	rootCmd.Flags().AddFlagSet(f)
	rootCmd.AddCommand(runCmd)
}

func (o runOptions) request() pipeline.Request {
	return pipeline.Request{
		SourceKey: o.source,
		Category:  o.category,
		Limit:     o.limit,
		DryRun:    o.dryRun,
		Filters: crawler.Filters{
			Brand:           o.brand,
			NewArrivalsDays: o.newArrivals,
			PriceFrom:       o.priceFrom,
			PriceTo:         o.priceTo,
			Order:           o.order,
		},
	}
}

func runIngestion(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := observability.Start(cfg.MetricsPort); err != nil {
		return fmt.Errorf("start metrics: %w", err)
	}

	reg, err := source.Load(cfg.SourcesFile)
	if err != nil {
		return err
	}

	b, err := openBackends(cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	opts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithDelay(cfg.Publish.Delay),
	}
	if b.ledger != nil {
		opts = append(opts, publisher.WithLedger(b.ledger))
	}
	pub := publisher.New(b.store, b.objects, b.identity, opts...)

	driver := pipeline.New(reg, pub, crawler.Options{
		Logger:    log,
		UserAgent: cfg.Scraper.UserAgent,
		Timeout:   cfg.Scraper.Timeout,
		Retries:   cfg.Scraper.Retries,
		Headless:  cfg.Scraper.Headless,
	}, log)

	summary, err := driver.Run(cmd.Context(), runOpts.request())
	renderSummary(cmd.OutOrStdout(), summary)
	return err
}

func renderSummary(w io.Writer, s pipeline.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Run summary")
	t.AppendRows([]table.Row{
		{"Source", s.Requested.SourceKey},
		{"Category", s.Requested.Category},
		{"Limit", s.Requested.Limit},
		{"Dry run", strconv.FormatBool(s.Requested.DryRun)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Extracted", s.Extracted},
		{"Success", s.Success},
		{"Errors", s.Errors},
		{"Skipped", s.Skipped},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
