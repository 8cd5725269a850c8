package remote

import (
	"io"
	"net/http"
	"net/url"

	"github.com/aberhamm/gpt-researcher/internal/metrics"
	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

// DefaultZenRowsEndpoint is the hosted ZenRows API.
const DefaultZenRowsEndpoint = "https://api.zenrows.com/v1/"

// ZenRowsConfig configures the ZenRows adapter.
type ZenRowsConfig struct {
	// APIKey is required; construction fails without it.
	APIKey string
	// Endpoint overrides the API URL, for tests.
	Endpoint string
	// CommentThread switches extraction to the discussion-thread parser.
	CommentThread bool
	Client        *http.Client
}

// ZenRows is the single-attempt adapter: one rendered-page request, and any
// failure at all collapses to an empty extraction.
type ZenRows struct {
	cfg ZenRowsConfig
}

// NewZenRows validates the credential and builds the adapter.
func NewZenRows(cfg ZenRowsConfig) (*ZenRows, error) {
	if cfg.APIKey == "" {
		return nil, scrape.NewConfigError("zenrows api key not set (ZEN_ROWS_API_KEY)")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultZenRowsEndpoint
	}
	cfg.Client = defaultedClient(cfg.Client)
	return &ZenRows{cfg: cfg}, nil
}

// Key implements scrape.Strategy.
func (z *ZenRows) Key() scrape.StrategyKey {
	return scrape.KeyZenRows
}

// ExtractBlocking implements scrape.BlockingExtractor.
func (z *ZenRows) ExtractBlocking(target scrape.Target) (scrape.Extraction, error) {
	params := url.Values{
		"apikey":        {z.cfg.APIKey},
		"url":           {target.URL},
		"js_render":     {"true"},
		"premium_proxy": {boolParam(NeedsPremiumProxy(target.URL))},
	}

	metrics.RecordRemoteAttempt("zenrows")
	resp, err := z.cfg.Client.Get(z.cfg.Endpoint + "?" + params.Encode())
	if err != nil {
		return scrape.Extraction{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return scrape.Extraction{}, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return scrape.Extraction{}, nil
	}

	extraction, err := parseResponse(string(body), z.cfg.CommentThread)
	if err != nil {
		return scrape.Extraction{}, nil
	}
	return extraction, nil
}
