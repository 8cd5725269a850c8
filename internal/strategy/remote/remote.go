// Package remote implements the API-backed strategy adapters. Each adapter
// wraps one hosted scraping service behind the common extractor capability;
// callers never need to know which service is in use.
//
// The adapters never propagate transport errors: a request that ultimately
// yields nothing usable becomes an empty extraction, and retry behavior is
// an internal policy of each adapter.
package remote

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aberhamm/gpt-researcher/internal/normalize"
	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

// PremiumProxyDomains is the fixed set of domains known to block standard
// scraping and require the services' premium proxy tier. The lookup is
// static; nothing is learned or cached per session.
var PremiumProxyDomains = []string{
	"reddit.com",
	"twitter.com",
	"linkedin.com",
	"instagram.com",
}

// NeedsPremiumProxy reports whether the URL's host falls under one of the
// premium domains. Computed fresh per request.
func NeedsPremiumProxy(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range PremiumProxyDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// parseResponse turns a service's HTML payload into an extraction using the
// strategy-shared normalizer. When comment-thread parsing was requested the
// discussion layout parser replaces the block-tag pass.
func parseResponse(body string, commentThread bool) (scrape.Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("parse response html: %w", err)
	}
	doc.Find("script, style").Remove()

	content := ""
	if commentThread {
		content = normalize.CommentThread(doc, "")
	} else {
		content = normalize.Document(doc)
	}
	return scrape.Extraction{
		Content:   content,
		ImageURLs: []string{},
		Title:     normalize.Title(doc),
	}, nil
}

func defaultedClient(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
