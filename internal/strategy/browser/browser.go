// Package browser implements the full-browser extraction strategy using
// chromedp. It renders JavaScript-heavy pages in headless Chrome and
// extracts text from the settled DOM.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/aberhamm/gpt-researcher/internal/normalize"
	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

// Config controls the browser strategy.
type Config struct {
	UserAgent         string
	NavigationTimeout time.Duration
}

// Strategy implements scrape.Extractor by driving a shared Chrome allocator.
// Page contexts are per-extraction; the allocator lives until Close.
type Strategy struct {
	cfg         Config
	allocator   context.Context
	allocCancel context.CancelFunc
}

// New launches the exec allocator backing all extractions.
func New(cfg Config) (*Strategy, error) {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Strategy{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context and its browser processes.
func (s *Strategy) Close() {
	s.allocCancel()
}

// Key implements scrape.Strategy.
func (s *Strategy) Key() scrape.StrategyKey {
	return scrape.KeyBrowser
}

// Extract implements scrape.Extractor.
func (s *Strategy) Extract(ctx context.Context, target scrape.Target) (scrape.Extraction, error) {
	taskCtx, taskCancel := chromedp.NewContext(s.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, s.cfg.NavigationTimeout)
	defer cancel()

	// Tie the page context to the caller so an external deadline tears the
	// navigation down too.
	stop := propagateCancel(ctx, taskCancel)
	defer stop()

	html, finalURL, err := s.render(taskCtx, target.URL)
	if err != nil {
		if ctx.Err() != nil {
			return scrape.Extraction{}, fmt.Errorf("browser canceled: %w", ctx.Err())
		}
		return scrape.Extraction{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("browser parse: %w", err)
	}
	doc.Find("script, style").Remove()

	if finalURL == "" {
		finalURL = target.URL
	}
	base, _ := url.Parse(finalURL)
	return scrape.Extraction{
		Content:   normalize.Document(doc),
		ImageURLs: normalize.ImageURLs(doc, base),
		Title:     normalize.Title(doc),
	}, nil
}

func (s *Strategy) render(ctx context.Context, pageURL string) (string, string, error) {
	var (
		html     string
		finalURL string
	)
	actions := []chromedp.Action{
		s.userAgentAction(),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(ctx, actions...); err != nil {
		return "", "", fmt.Errorf("chromedp run: %w", err)
	}
	return html, finalURL, nil
}

func (s *Strategy) userAgentAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if s.cfg.UserAgent == "" {
			return nil
		}
		if err := emulation.SetUserAgentOverride(s.cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		return nil
	})
}

// propagateCancel cancels the page when the caller's context finishes. The
// returned stop func must be deferred to release the watcher goroutine.
func propagateCancel(ctx context.Context, cancel context.CancelFunc) func() {
	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stopped:
		}
	}()
	return func() { close(stopped) }
}
