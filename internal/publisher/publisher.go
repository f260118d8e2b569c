// Package publisher turns product records into posts authored by the bot
// account: the image is copied into the object store, then a post row and
// one attribute row per size are written.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"merchingest/internal/clock"
	"merchingest/internal/logger"
	"merchingest/internal/model"
	"merchingest/internal/observability"
)

// DefaultCategory labels attribute rows of products without a category.
const DefaultCategory = "Vêtement"

const maxLabelLength = 50

const unreachedLookupTimeout = 2 * time.Second

var unsafeLabelChars = regexp.MustCompile(`[^a-z0-9]+`)

// BotConfig describes the account every generated post is published under.
type BotConfig struct {
	Username string
	Email    string
	Height   int
	Size     string
}

func DefaultBot() BotConfig {
	return BotConfig{
		Username: "InFit_Official",
		Email:    "bot@infit.app",
		Height:   180,
		Size:     model.DefaultSize,
	}
}

// Collections names the data store collections the publisher writes to.
type Collections struct {
	Accounts   string
	Posts      string
	Attributes string
}

func DefaultCollections() Collections {
	return Collections{Accounts: "profiles", Posts: "outfits", Attributes: "clothing_pieces"}
}

// Result counts the outcome of a batch.
type Result struct {
	Success int
	Errors  int
	Skipped int
}

type Publisher struct {
	store    DataStore
	objects  ObjectStore
	identity IdentityProvider
	ledger   Ledger
	http     *resty.Client
	clock    clock.Clock
	log      logger.Logger
	bot      BotConfig
	cols     Collections
	delay    time.Duration

	mu    sync.Mutex
	botID string
}

type Option func(*Publisher)

func WithLogger(l logger.Logger) Option { return func(p *Publisher) { p.log = l } }
func WithClock(c clock.Clock) Option { return func(p *Publisher) { p.clock = c } }
func WithDelay(d time.Duration) Option { return func(p *Publisher) { p.delay = d } }
func WithBot(b BotConfig) Option { return func(p *Publisher) { p.bot = b } }
func WithCollections(c Collections) Option { return func(p *Publisher) { p.cols = c } }

// WithLedger skips products already published in an earlier run.
func WithLedger(l Ledger) Option { return func(p *Publisher) { p.ledger = l } }

// WithHTTPClient replaces the client used to download product images.
func WithHTTPClient(c *resty.Client) Option { return func(p *Publisher) { p.http = c } }

func New(store DataStore, objects ObjectStore, identity IdentityProvider, opts ...Option) *Publisher {
	p := &Publisher{
		store:    store,
		objects:  objects,
		identity: identity,
		clock:    clock.Real{},
		log:      logger.NewNop(),
		bot:      DefaultBot(),
		cols:     DefaultCollections(),
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.http == nil {
		p.http = resty.New().
			SetTimeout(30*time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500*time.Millisecond).
			SetLogger(logger.NewPrintf(p.log)).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= 500 || r.StatusCode() == 429
			})
	}
	return p
}

// EnsureBotIdentity returns the bot account id, creating the account and
// its profile on first use. The id is cached for the life of the Publisher.
func (p *Publisher) EnsureBotIdentity(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.botID != "" {
		return p.botID, nil
	}

	rows, err := p.store.Select(ctx, p.cols.Accounts, model.Row{"username": p.bot.Username})
	if err != nil {
		return "", fmt.Errorf("look up bot profile: %w", err)
	}
	if len(rows) > 0 && rows[0].ID() != "" {
		p.botID = rows[0].ID()
		return p.botID, nil
	}

	id, err := p.identity.CreateAccount(ctx, p.bot.Email, p.bot.Username)
	if err != nil {
		return "", fmt.Errorf("create bot account: %w", err)
	}
	_, err = p.store.Insert(ctx, p.cols.Accounts, model.Row{
		"id":       id,
		"username": p.bot.Username,
		"height":   p.bot.Height,
	})
	if err != nil {
		return "", fmt.Errorf("create bot profile: %w", err)
	}

	p.log.Info("bot account created", logger.String("user_id", id), logger.String("username", p.bot.Username))
	p.botID = id
	return id, nil
}

// UploadImage copies the image at remoteURL into the object store and returns
// its public address.
func (p *Publisher) UploadImage(ctx context.Context, remoteURL, label string) (string, error) {
	public, _, err := p.upload(ctx, remoteURL, label)
	return public, err
}

func (p *Publisher) upload(ctx context.Context, remoteURL, label string) (string, string, error) {
	resp, err := p.http.R().SetContext(ctx).Get(remoteURL)
	if err != nil {
		return "", "", fmt.Errorf("download image %s: %w", remoteURL, err)
	}
	if resp.IsError() {
		return "", "", fmt.Errorf("download image %s: status %d", remoteURL, resp.StatusCode())
	}

	contentType, ext := imageType(resp.Header().Get("Content-Type"))
	key := fmt.Sprintf("scraped/%d-%s.%s", p.clock.Now().UnixMilli(), sanitizeLabel(label), ext)
	if err := p.objects.Put(ctx, key, resp.Body(), contentType); err != nil {
		return "", "", fmt.Errorf("store image %s: %w", key, err)
	}
	return p.objects.PublicURL(key), key, nil
}

// CreatePost publishes product and returns the post id. A dry run only logs
// and returns "".
//
// When the post row cannot be written the uploaded image stays in the object
// store and its key is logged. When the attribute rows cannot be written the
// post is kept and its id returned.
func (p *Publisher) CreatePost(ctx context.Context, product model.ProductRecord, dryRun bool) (string, error) {
	if dryRun {
		p.log.Info("dry run: post not created",
			logger.String("brand", product.Brand),
			logger.String("name", product.Name),
			logger.String("price", product.Price),
			logger.Strings("sizes", product.Sizes),
		)
		observability.PostsTotal.WithLabelValues(observability.OutcomeDryRun).Inc()
		return "", nil
	}

	id, err := p.createPost(ctx, product)
	if err != nil {
		observability.PostsTotal.WithLabelValues(observability.OutcomeFailed).Inc()
		return "", err
	}
	return id, nil
}

func (p *Publisher) createPost(ctx context.Context, product model.ProductRecord) (string, error) {
	botID, err := p.EnsureBotIdentity(ctx)
	if err != nil {
		return "", err
	}

	p.log.Info("uploading image", logger.String("name", product.Name))
	imageURL, key, err := p.upload(ctx, product.ImageURL, product.Name)
	if err != nil {
		return "", err
	}

	post, err := p.store.Insert(ctx, p.cols.Posts, model.Row{
		"user_id":          botID,
		"image_url":        imageURL,
		"publisher_height": p.bot.Height,
		"publisher_size":   p.bot.Size,
		"description":      fmt.Sprintf("%s - %s\n\n%s", product.Name, product.Price, product.Description),
	})
	if err != nil {
		p.log.Error("post insert failed, uploaded image left in place",
			logger.String("name", product.Name),
			logger.String("object_key", key),
			logger.Error(err),
		)
		return "", fmt.Errorf("insert post: %w", err)
	}
	postID := post.ID()
	if postID == "" {
		return "", errors.New("insert post: stored row has no id")
	}

	if err := p.insertAttributes(ctx, postID, product); err != nil {
		p.log.Error("attribute insert failed, post kept without attributes",
			logger.String("post_id", postID),
			logger.String("name", product.Name),
			logger.Error(err),
		)
		observability.PostsTotal.WithLabelValues(observability.OutcomePartial).Inc()
		return postID, nil
	}

	p.log.Info("post created", logger.String("post_id", postID), logger.String("name", product.Name))
	observability.PostsTotal.WithLabelValues(observability.OutcomePublished).Inc()
	return postID, nil
}

func (p *Publisher) insertAttributes(ctx context.Context, postID string, product model.ProductRecord) error {
	category := product.Category
	if category == "" {
		category = DefaultCategory
	}
	rows := make([]model.Row, 0, len(product.Sizes))
	for _, size := range product.Sizes {
		rows = append(rows, model.Row{
			"outfit_id":     postID,
			"brand":         product.Brand,
			"product_name":  product.Name,
			"size":          size,
			"category":      category,
			"description":   product.Description,
			"purchase_link": product.ItemURL,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	_, err := p.store.InsertMany(ctx, p.cols.Attributes, rows)
	return err
}

// CreatePosts publishes products one after the other, waiting the configured
// delay between two publish attempts. A failing product never stops the
// batch; cancelling ctx does, and the products left are counted as errors
// unless the ledger already holds them.
func (p *Publisher) CreatePosts(ctx context.Context, products []model.ProductRecord, dryRun bool) Result {
	p.log.Info("creating posts", logger.Int("count", len(products)), logger.Bool("dry_run", dryRun))

	var res Result
	attempted := 0
	for i, product := range products {
		if !dryRun && p.alreadyPublished(ctx, product) {
			res.Skipped++
			continue
		}

		if attempted > 0 {
			if err := p.clock.Sleep(ctx, p.delay); err != nil {
				p.log.Warn("batch interrupted", logger.Int("remaining", len(products)-i), logger.Error(err))
				skipped, unpublished := p.countUnreached(ctx, products[i:], dryRun)
				res.Skipped += skipped
				res.Errors += unpublished
				break
			}
		}
		attempted++

		id, err := p.CreatePost(ctx, product, dryRun)
		if err != nil {
			res.Errors++
			p.log.Error("publish failed",
				logger.String("name", product.Name),
				logger.String("item_url", product.ItemURL),
				logger.Error(err),
			)
			continue
		}
		res.Success++
		if !dryRun && id != "" {
			p.markPublished(ctx, product)
		}
	}

	p.log.Info("posts summary",
		logger.Int("success", res.Success),
		logger.Int("errors", res.Errors),
		logger.Int("skipped", res.Skipped),
	)
	return res
}

// countUnreached splits the products an interrupted batch never got to into
// already published ones and the rest. The ledger lookups outlive ctx but are
// bounded by unreachedLookupTimeout.
func (p *Publisher) countUnreached(ctx context.Context, products []model.ProductRecord, dryRun bool) (skipped, unpublished int) {
	if dryRun || p.ledger == nil {
		return 0, len(products)
	}
	lookup, cancel := context.WithTimeout(context.WithoutCancel(ctx), unreachedLookupTimeout)
	defer cancel()

	for _, product := range products {
		if seen, err := p.ledger.Seen(lookup, product.ItemURL); err == nil && seen {
			skipped++
			continue
		}
		unpublished++
	}
	return skipped, unpublished
}

func (p *Publisher) alreadyPublished(ctx context.Context, product model.ProductRecord) bool {
	if p.ledger == nil {
		return false
	}
	seen, err := p.ledger.Seen(ctx, product.ItemURL)
	if err != nil {
		p.log.Warn("ledger lookup failed", logger.String("item_url", product.ItemURL), logger.Error(err))
		return false
	}
	if seen {
		p.log.Info("already published", logger.String("item_url", product.ItemURL))
		observability.PostsTotal.WithLabelValues(observability.OutcomeSkipped).Inc()
	}
	return seen
}

func (p *Publisher) markPublished(ctx context.Context, product model.ProductRecord) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.Mark(ctx, product.ItemURL); err != nil {
		p.log.Warn("ledger update failed", logger.String("item_url", product.ItemURL), logger.Error(err))
	}
}

// sanitizeLabel turns a product name into a storage-safe file name part.
func sanitizeLabel(label string) string {
	s := unsafeLabelChars.ReplaceAllString(strings.ToLower(label), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxLabelLength {
		s = strings.TrimRight(s[:maxLabelLength], "-")
	}
	if s == "" {
		return "image"
	}
	return s
}

// imageType maps a response content type to the stored type and file
// extension. Anything unknown is stored as JPEG.
func imageType(header string) (string, string) {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "image/jpeg", "jpg"
	}
	switch mediaType {
	case "image/png":
		return mediaType, "png"
	case "image/webp":
		return mediaType, "webp"
	case "image/gif":
		return mediaType, "gif"
	case "image/avif":
		return mediaType, "avif"
	default:
		return "image/jpeg", "jpg"
	}
}
