package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ErrLoadTimeout is returned when a page does not finish loading within the
// extraction deadline.
var ErrLoadTimeout = errors.New("page load timed out")

// ErrExtraction is returned when a loaded page cannot be reduced to readable
// markdown.
var ErrExtraction = errors.New("content extraction failed")

// ExtractedPage is the readable form of one visited URL.
type ExtractedPage struct {
	URL      string
	Title    string
	Markdown string
}

// BrowserOptions controls the shared Chrome/Chromium instance used for page
// extraction.
type BrowserOptions struct {
	// ChromePath optionally overrides the Chrome/Chromium executable path.
	// If empty, chromedp will try to find a browser on PATH / default locations.
	ChromePath string
	// Headless controls whether Chrome runs without a visible window.
	// Set to false to debug extraction in a real window ("headful").
	Headless bool
	// Timeout is the per-attempt deadline for navigation + rendering + capture.
	// If <= 0, DefaultLoadTimeout is used.
	Timeout time.Duration
}

// Browser owns one running Chrome instance. Each page capture opens its own
// tab against it and closes that tab before returning, so the number of open
// tabs is bounded by the number of in-flight captures (one, for the
// sequential import pipeline).
type Browser struct {
	opts          BrowserOptions
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// NewBrowser starts Chrome and keeps it running until Close. Starting the
// browser up front means per-page captures attach as new tabs instead of
// spawning a fresh process per URL.
func NewBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	allocatorOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocatorOpts = append(allocatorOpts,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
	)
	if opts.ChromePath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(opts.ChromePath))
	}
	if opts.Headless {
		allocatorOpts = append(allocatorOpts, chromedp.Headless)
	} else {
		allocatorOpts = append(allocatorOpts, chromedp.Flag("headless", false))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Browser{
		opts:          opts,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

// Close shuts down the browser and releases its allocator.
func (b *Browser) Close() {
	b.cancelBrowser()
	b.cancelAlloc()
}

// capturedPage is the raw output of visiting one URL in a tab.
type capturedPage struct {
	FinalURL string
	Title    string
	HTML     string
}

// CapturePage loads a URL in a new background tab and returns the final
// rendered HTML. The tab is closed on success and failure alike; the deferred
// cancel is the release half of the tab acquisition.
func (b *Browser) CapturePage(ctx context.Context, url string) (capturedPage, error) {
	tabCtx, closeTab := chromedp.NewContext(b.browserCtx)
	defer closeTab()

	timeout := b.opts.Timeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	runCtx, cancelRun := context.WithTimeout(tabCtx, timeout)
	defer cancelRun()

	// Stop early if the caller's context is already done.
	if err := ctx.Err(); err != nil {
		return capturedPage{}, err
	}

	// Wait for network idle to ensure all resources are loaded
	waitForNetworkIdle := func(ctx context.Context) error {
		// Enable lifecycle events
		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return err
		}

		// Create a channel to receive lifecycle events
		ch := make(chan struct{})
		chromedp.ListenTarget(ctx, func(ev interface{}) {
			if e, ok := ev.(*page.EventLifecycleEvent); ok {
				if e.Name == "networkIdle" {
					select {
					case ch <- struct{}{}:
					default:
					}
				}
			}
		})

		// Navigate and wait for network idle
		if err := chromedp.Navigate(url).Do(ctx); err != nil {
			return err
		}

		// Wait for networkIdle event or timeout
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	}

	var out capturedPage
	actions := []chromedp.Action{
		chromedp.ActionFunc(waitForNetworkIdle),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Small delay to allow any final JS execution after network idle
		chromedp.Sleep(DefaultNetworkIdleDelay),
		chromedp.Location(&out.FinalURL),
		chromedp.Title(&out.Title),
		chromedp.OuterHTML("html", &out.HTML, chromedp.ByQuery),
	}

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return capturedPage{}, fmt.Errorf("%w: %s", ErrLoadTimeout, url)
		}
		return capturedPage{}, err
	}
	return out, nil
}

// Extractor turns URLs into markdown pages, retrying failed captures with a
// linear back-off between attempts.
type Extractor struct {
	capture     func(ctx context.Context, url string) (capturedPage, error)
	maxAttempts int
	retryDelay  time.Duration
	sleep       func(d time.Duration)
}

// ExtractorOptions tunes the retry loop around page capture.
type ExtractorOptions struct {
	// MaxAttempts is the total number of capture attempts per URL. <= 0
	// means DefaultMaxAttempts.
	MaxAttempts int
	// RetryDelay is the base back-off between attempts. <= 0 means
	// DefaultRetryDelay.
	RetryDelay time.Duration
}

// NewExtractor builds an Extractor on top of a running Browser.
func NewExtractor(b *Browser, opts ExtractorOptions) *Extractor {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Extractor{
		capture:     b.CapturePage,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		sleep:       time.Sleep,
	}
}

// Extract visits a URL and returns its readable content as markdown. Each
// failed attempt waits retryDelay * attemptNumber before the next one; only
// the final attempt's failure propagates.
func (e *Extractor) Extract(ctx context.Context, url string) (ExtractedPage, error) {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			e.sleep(e.retryDelay * time.Duration(attempt-1))
		}

		page, err := e.extractOnce(ctx, url)
		if err != nil {
			lastErr = err
			log.Printf("Extraction attempt %d/%d failed for %s: %v", attempt, e.maxAttempts, url, err)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ExtractedPage{}, ctxErr
			}
			continue
		}
		return page, nil
	}
	return ExtractedPage{}, lastErr
}

func (e *Extractor) extractOnce(ctx context.Context, url string) (ExtractedPage, error) {
	captured, err := e.capture(ctx, url)
	if err != nil {
		return ExtractedPage{}, err
	}

	markdown, title, err := RenderMarkdown(url, captured.HTML)
	if err != nil {
		return ExtractedPage{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if title == "" {
		title = captured.Title
	}

	return ExtractedPage{
		URL:      url,
		Title:    title,
		Markdown: markdown,
	}, nil
}
