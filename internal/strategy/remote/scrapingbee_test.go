package remote

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

func TestNewScrapingBeeRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewScrapingBee(ScrapingBeeConfig{})
	require.Error(t, err)
	var cfgErr *scrape.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.ErrorContains(t, err, "SCRAPING_BEE_API_KEY")
}

func TestScrapingBeeRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		q := r.URL.Query()
		require.Equal(t, "secret", q.Get("api_key"))
		require.Equal(t, "true", q.Get("render_js"))
		require.Equal(t, "true", q.Get("block_ads"))
		require.Equal(t, "true", q.Get("block_resources"))
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	s, err := NewScrapingBee(ScrapingBeeConfig{APIKey: "secret", Endpoint: srv.URL})
	require.NoError(t, err)

	got, err := s.ExtractBlocking(scrape.Target{URL: "https://example.com/page"})
	require.NoError(t, err)
	require.Contains(t, got.Content, "Enough paragraph text")
	require.EqualValues(t, 2, hits.Load())
}

func TestScrapingBeeSwallowsExhaustedRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, err := NewScrapingBee(ScrapingBeeConfig{APIKey: "secret", Endpoint: srv.URL, Retries: 2})
	require.NoError(t, err)

	got, err := s.ExtractBlocking(scrape.Target{URL: "https://example.com/broken"})
	require.NoError(t, err)
	require.Empty(t, got.Content)
	// Budget of 2 retries means 3 calls total.
	require.EqualValues(t, 3, hits.Load())
}

func TestScrapingBeePremiumProxyParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  string
		premium string
	}{
		{"premium domain", "https://twitter.com/someone", "true"},
		{"ordinary domain", "https://example.com/a", "false"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var gotPremium atomic.Value
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPremium.Store(r.URL.Query().Get("premium_proxy"))
				_, _ = w.Write([]byte(samplePage))
			}))
			defer srv.Close()

			s, err := NewScrapingBee(ScrapingBeeConfig{APIKey: "secret", Endpoint: srv.URL})
			require.NoError(t, err)

			_, err = s.ExtractBlocking(scrape.Target{URL: tc.target})
			require.NoError(t, err)
			require.Equal(t, tc.premium, gotPremium.Load())
		})
	}
}

func TestScrapingBeeCommentThread(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<div class="usertext-body">thread body</div>`))
	}))
	defer srv.Close()

	s, err := NewScrapingBee(ScrapingBeeConfig{APIKey: "secret", Endpoint: srv.URL, CommentThread: true})
	require.NoError(t, err)

	got, err := s.ExtractBlocking(scrape.Target{URL: "https://www.reddit.com/r/golang/comments/1"})
	require.NoError(t, err)
	require.Equal(t, "Comment 1:\nthread body\n", got.Content)
}
