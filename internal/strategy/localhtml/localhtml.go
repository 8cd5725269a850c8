// Package localhtml implements the static-HTML extraction strategy: one GET
// through the shared HTTP client, then goquery parsing. It is the usual batch
// default for plain article pages.
package localhtml

import (
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"github.com/aberhamm/gpt-researcher/internal/normalize"
	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

// Strategy fetches a page synchronously and extracts text, images, and title.
// The HTTP client is shared read-only across tasks for connection reuse.
type Strategy struct {
	client    *http.Client
	userAgent string
}

// New builds the strategy around a shared client. A nil client falls back to
// http.DefaultClient.
func New(client *http.Client, userAgent string) *Strategy {
	if client == nil {
		client = http.DefaultClient
	}
	return &Strategy{client: client, userAgent: userAgent}
}

// Key implements scrape.Strategy.
func (s *Strategy) Key() scrape.StrategyKey {
	return scrape.KeyLocalHTML
}

// ExtractBlocking implements scrape.BlockingExtractor. A non-2xx response is
// "no content", not an error; transport failures are errors.
func (s *Strategy) ExtractBlocking(target scrape.Target) (scrape.Extraction, error) {
	req, err := http.NewRequest(http.MethodGet, target.URL, nil)
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("fetch %s: %w", target.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return scrape.Extraction{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("parse %s: %w", target.URL, err)
	}
	doc.Find("script, style").Remove()

	return scrape.Extraction{
		Content:   normalize.Document(doc),
		ImageURLs: normalize.ImageURLs(doc, resp.Request.URL),
		Title:     normalize.Title(doc),
	}, nil
}
