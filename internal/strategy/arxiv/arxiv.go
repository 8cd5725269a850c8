// Package arxiv implements the arXiv extraction strategy. Instead of
// scraping the HTML abstract page it queries the arXiv Atom export API,
// which returns the authoritative title, authors, and abstract for a paper.
package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/aberhamm/gpt-researcher/internal/normalize"
	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

// DefaultEndpoint is the arXiv Atom export API.
const DefaultEndpoint = "https://export.arxiv.org/api/query"

var (
	versionSuffix = regexp.MustCompile(`v\d+$`)
	bareIDShape   = regexp.MustCompile(`^\d{4}\.\d{4,5}$`)
)

// Strategy implements scrape.Extractor for arxiv.org URLs.
type Strategy struct {
	client   *http.Client
	endpoint string
}

// New builds the strategy. endpoint is overridable for tests; "" selects the
// public API.
func New(client *http.Client, endpoint string) *Strategy {
	if client == nil {
		client = http.DefaultClient
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Strategy{client: client, endpoint: endpoint}
}

// Key implements scrape.Strategy.
func (s *Strategy) Key() scrape.StrategyKey {
	return scrape.KeyArxiv
}

// Extract implements scrape.Extractor. The content is the paper's title,
// authors, and abstract; an unrecognized or unknown identifier yields empty
// content, not an error.
func (s *Strategy) Extract(ctx context.Context, target scrape.Target) (scrape.Extraction, error) {
	id := PaperID(target.URL)
	if id == "" {
		return scrape.Extraction{}, nil
	}

	query := url.Values{"id_list": {id}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("query arxiv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return scrape.Extraction{}, nil
	}

	feed, err := xmlquery.Parse(resp.Body)
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("parse atom feed: %w", err)
	}

	entry := xmlquery.FindOne(feed, "//entry")
	if entry == nil {
		return scrape.Extraction{}, nil
	}

	title := nodeText(entry, "title")
	summary := nodeText(entry, "summary")
	var authors []string
	for _, n := range xmlquery.Find(entry, "author/name") {
		authors = append(authors, strings.TrimSpace(n.InnerText()))
	}

	var content strings.Builder
	content.WriteString(title)
	if len(authors) > 0 {
		content.WriteString("\n")
		content.WriteString(strings.Join(authors, ", "))
	}
	content.WriteString("\n")
	content.WriteString(summary)

	return scrape.Extraction{
		Content:   normalize.Text(content.String()),
		ImageURLs: []string{},
		Title:     title,
	}, nil
}

// PaperID pulls the arXiv identifier out of an abs/pdf URL, dropping any
// version suffix. Returns "" when the URL carries no recognizable identifier.
func PaperID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := strings.Trim(strings.TrimSuffix(u.Path, ".pdf"), "/")
	for _, prefix := range []string{"abs/", "pdf/"} {
		if idx := strings.Index(p, prefix); idx >= 0 {
			return versionSuffix.ReplaceAllString(p[idx+len(prefix):], "")
		}
	}
	// Bare /<id> URLs as shared in references.
	if bareIDShape.MatchString(p) {
		return p
	}
	return ""
}

func nodeText(parent *xmlquery.Node, selector string) string {
	n := xmlquery.FindOne(parent, selector)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.InnerText())
}
