package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

var errBrowserClosed = errors.New("browser session closed")

// Browser renders pages that need JavaScript before their markup is usable.
type Browser interface {
	// Render loads address, waits for waitFor to match and returns the
	// document HTML.
	Render(ctx context.Context, address, waitFor string) (string, error)
	Close() error
}

// ChromeBrowser is a headless Chrome session started on first use.
type ChromeBrowser struct {
	headless  bool
	userAgent string
	timeout   time.Duration

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closed      bool
}

func NewChromeBrowser(headless bool, userAgent string, timeout time.Duration) *ChromeBrowser {
	return &ChromeBrowser{headless: headless, userAgent: userAgent, timeout: timeout}
}

func (b *ChromeBrowser) session() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errBrowserClosed
	}
	if b.ctx != nil {
		return b.ctx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if b.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.userAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	b.ctx, b.cancel, b.allocCancel = ctx, cancel, allocCancel
	return ctx, nil
}

func (b *ChromeBrowser) Render(ctx context.Context, address, waitFor string) (string, error) {
	browserCtx, err := b.session()
	if err != nil {
		return "", err
	}

	tab, closeTab := chromedp.NewContext(browserCtx)
	defer closeTab()
	tab, cancel := context.WithTimeout(tab, b.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	actions := []chromedp.Action{chromedp.Navigate(address)}
	if waitFor != "" {
		actions = append(actions, chromedp.WaitReady(waitFor, chromedp.ByQuery))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tab, actions...); err != nil {
		return "", fmt.Errorf("render %s: %w", address, err)
	}
	return html, nil
}

// Close shuts Chrome down. Later calls are no-ops.
func (b *ChromeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.cancel != nil {
		b.cancel()
		b.allocCancel()
	}
	return nil
}
