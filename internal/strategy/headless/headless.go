// Package headless implements the lightweight headless-browser strategy on
// go-rod. Compared to the chromedp-based browser strategy it keeps a page
// pool over one browser process, which makes it the cheaper choice for
// batches with many JavaScript pages.
package headless

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/aberhamm/gpt-researcher/internal/normalize"
	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

// Config controls the rod-backed strategy.
type Config struct {
	UserAgent  string
	MaxPages   int
	NavTimeout time.Duration
	BrowserBin string
	NoSandbox  bool
}

// Strategy implements scrape.Extractor over a shared browser and page pool.
type Strategy struct {
	cfg      Config
	browser  *rod.Browser
	pagePool rod.Pool[rod.Page]
}

// New launches the browser and initializes the reusable page pool.
func New(cfg Config) (*Strategy, error) {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 4
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}

	l := launcher.New().Headless(true).NoSandbox(cfg.NoSandbox)
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &Strategy{
		cfg:      cfg,
		browser:  browser,
		pagePool: rod.NewPagePool(cfg.MaxPages),
	}, nil
}

// Close tears the page pool and browser down.
func (s *Strategy) Close() error {
	s.pagePool.Cleanup(func(p *rod.Page) { _ = p.Close() })
	if err := s.browser.Close(); err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

// Key implements scrape.Strategy.
func (s *Strategy) Key() scrape.StrategyKey {
	return scrape.KeyHeadless
}

// Extract implements scrape.Extractor.
func (s *Strategy) Extract(ctx context.Context, target scrape.Target) (scrape.Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	page, err := s.pagePool.Get(func() (*rod.Page, error) {
		p, err := s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			return nil, fmt.Errorf("open page: %w", err)
		}
		return p, nil
	})
	if err != nil {
		return scrape.Extraction{}, err
	}
	// Park the tab on about:blank before returning it so the pool never hands
	// out a page still holding the previous document.
	defer func() {
		_ = page.Navigate("about:blank")
		s.pagePool.Put(page)
	}()

	bound := page.Context(ctx)
	if s.cfg.UserAgent != "" {
		if err := bound.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.cfg.UserAgent}); err != nil {
			return scrape.Extraction{}, fmt.Errorf("set user-agent: %w", err)
		}
	}
	if err := bound.Navigate(target.URL); err != nil {
		return scrape.Extraction{}, fmt.Errorf("navigate %s: %w", target.URL, err)
	}
	if err := bound.WaitLoad(); err != nil {
		return scrape.Extraction{}, fmt.Errorf("wait load %s: %w", target.URL, err)
	}

	html, err := bound.HTML()
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("read dom %s: %w", target.URL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("headless parse: %w", err)
	}
	doc.Find("script, style").Remove()

	base, _ := url.Parse(target.URL)
	return scrape.Extraction{
		Content:   normalize.Document(doc),
		ImageURLs: normalize.ImageURLs(doc, base),
		Title:     normalize.Title(doc),
	}, nil
}
