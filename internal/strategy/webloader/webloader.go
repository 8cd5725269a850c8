// Package webloader implements the colly-backed document loader strategy. It
// differs from localhtml in that colly's collector handles redirects,
// character-set detection, and connection pooling for us.
package webloader

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/aberhamm/gpt-researcher/internal/normalize"
	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Strategy implements scrape.Extractor using a cloned colly collector per
// extraction. The base collector and its transport are shared read-only.
type Strategy struct {
	cfg  Config
	base *colly.Collector
}

// New builds the strategy.
func New(cfg Config) *Strategy {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	return &Strategy{cfg: cfg, base: c}
}

// Key implements scrape.Strategy.
func (s *Strategy) Key() scrape.StrategyKey {
	return scrape.KeyWebLoader
}

// Extract implements scrape.Extractor.
func (s *Strategy) Extract(ctx context.Context, target scrape.Target) (scrape.Extraction, error) {
	collector := s.base.Clone()
	if s.cfg.UserAgent != "" {
		collector.UserAgent = s.cfg.UserAgent
	}
	timeout := s.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		body     []byte
		finalURL *url.URL
		status   int
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
		finalURL = r.Request.URL
		status = r.StatusCode
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target.URL)
	}()

	select {
	case <-ctx.Done():
		return scrape.Extraction{}, fmt.Errorf("web loader canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return scrape.Extraction{}, fmt.Errorf("web loader visit: %w", err)
		}
		if fetchErr != nil {
			return scrape.Extraction{}, fmt.Errorf("web loader response: %w", fetchErr)
		}
	}

	if status < 200 || status > 299 || len(body) == 0 {
		return scrape.Extraction{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("web loader parse: %w", err)
	}
	doc.Find("script, style").Remove()

	return scrape.Extraction{
		Content:   normalize.Document(doc),
		ImageURLs: normalize.ImageURLs(doc, finalURL),
		Title:     normalize.Title(doc),
	}, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
