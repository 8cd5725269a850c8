// Package pdfdoc implements the PDF extraction strategy: download the
// document and pull its plain text out page by page.
package pdfdoc

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/aberhamm/gpt-researcher/internal/normalize"
	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

// MaxDocumentBytes caps the downloaded document size. Anything larger is
// treated as "no content" rather than buffered into memory.
const MaxDocumentBytes = 64 << 20

// Strategy downloads and parses PDF documents synchronously.
type Strategy struct {
	client    *http.Client
	userAgent string
}

// New builds the strategy around the shared HTTP client.
func New(client *http.Client, userAgent string) *Strategy {
	if client == nil {
		client = http.DefaultClient
	}
	return &Strategy{client: client, userAgent: userAgent}
}

// Key implements scrape.Strategy.
func (s *Strategy) Key() scrape.StrategyKey {
	return scrape.KeyPDF
}

// ExtractBlocking implements scrape.BlockingExtractor. PDFs carry no image
// URL list; the title falls back to the document's file name.
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

	if resp.StatusCode != http.StatusOK {
		return scrape.Extraction{}, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentBytes+1))
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("read %s: %w", target.URL, err)
	}
	if len(data) > MaxDocumentBytes {
		return scrape.Extraction{}, nil
	}

	text, err := plainText(data)
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("parse pdf %s: %w", target.URL, err)
	}

	return scrape.Extraction{
		Content:   normalize.Text(text),
		ImageURLs: []string{},
		Title:     documentTitle(target.URL),
	}, nil
}

func plainText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	body, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var out strings.Builder
	if _, err := io.Copy(&out, body); err != nil {
		return "", err
	}
	return out.String(), nil
}

func documentTitle(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	return strings.TrimSuffix(name, path.Ext(name))
}
