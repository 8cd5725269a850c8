package remote

import (
	"io"
	"net/http"
	"net/url"

	"github.com/aberhamm/gpt-researcher/internal/metrics"
	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

// DefaultScraperAPIEndpoint is the hosted ScraperAPI gateway.
const DefaultScraperAPIEndpoint = "https://api.scraperapi.com/"

// DefaultScraperAPIAttempts bounds the retry-until-terminal loop.
const DefaultScraperAPIAttempts = 5

// ScraperAPIConfig configures the ScraperAPI adapter.
type ScraperAPIConfig struct {
	// APIKey is required; construction fails without it.
	APIKey string
	// Endpoint overrides the gateway URL, for tests.
	Endpoint string
	// MaxAttempts bounds the retry loop; zero selects the default.
	MaxAttempts int
	Client      *http.Client
}

// ScraperAPI implements the bounded-retry-until-terminal policy: an HTTP 200
// or 404 is terminal (404 means "no content", not "try again"), a
// connection-level failure is transient and consumes one attempt, and
// exhausting every attempt yields an empty extraction rather than an error.
type ScraperAPI struct {
	cfg ScraperAPIConfig
}

// NewScraperAPI validates the credential and builds the adapter.
func NewScraperAPI(cfg ScraperAPIConfig) (*ScraperAPI, error) {
	if cfg.APIKey == "" {
		return nil, scrape.NewConfigError("scraperapi api key not set (SCRAPERAPI_API_KEY)")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultScraperAPIEndpoint
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultScraperAPIAttempts
	}
	cfg.Client = defaultedClient(cfg.Client)
	return &ScraperAPI{cfg: cfg}, nil
}

// Key implements scrape.Strategy.
func (s *ScraperAPI) Key() scrape.StrategyKey {
	return scrape.KeyScraperAPI
}

// ExtractBlocking implements scrape.BlockingExtractor.
func (s *ScraperAPI) ExtractBlocking(target scrape.Target) (scrape.Extraction, error) {
	params := url.Values{
		"api_key": {s.cfg.APIKey},
		"url":     {target.URL},
	}
	if NeedsPremiumProxy(target.URL) {
		params.Set("premium", "true")
	}
	requestURL := s.cfg.Endpoint + "?" + params.Encode()

	var terminal *http.Response
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		metrics.RecordRemoteAttempt("scraperapi")
		resp, err := s.cfg.Client.Get(requestURL)
		if err != nil {
			// Transient: the connection failure consumed one attempt.
			continue
		}
		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound {
			terminal = resp
			break
		}
		resp.Body.Close()
	}

	if terminal == nil {
		return scrape.Extraction{}, nil
	}
	defer terminal.Body.Close()

	if terminal.StatusCode != http.StatusOK {
		return scrape.Extraction{}, nil
	}

	body, err := io.ReadAll(terminal.Body)
	if err != nil {
		return scrape.Extraction{}, nil
	}
	extraction, err := parseResponse(string(body), false)
	if err != nil {
		return scrape.Extraction{}, nil
	}
	return extraction, nil
}
