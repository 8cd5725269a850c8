package pdfdoc

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

func TestExtractBlockingNon200IsEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := New(srv.Client(), "")
	got, err := s.ExtractBlocking(scrape.Target{URL: srv.URL + "/missing.pdf"})
	require.NoError(t, err)
	require.Empty(t, got.Content)
}

func TestExtractBlockingMalformedDocumentIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("this is not a pdf"))
	}))
	defer srv.Close()

	s := New(srv.Client(), "")
	_, err := s.ExtractBlocking(scrape.Target{URL: srv.URL + "/broken.pdf"})
	require.Error(t, err)
}

func TestExtractBlockingSendsUserAgent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "pdf-agent", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := New(srv.Client(), "pdf-agent")
	got, err := s.ExtractBlocking(scrape.Target{URL: srv.URL + "/doc.pdf"})
	require.NoError(t, err)
	require.Empty(t, got.Content)
}

func TestDocumentTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/papers/whitepaper.pdf", "whitepaper"},
		{"https://example.com/a/b/report-2024.pdf", "report-2024"},
		{"https://example.com/", "/"},
		{"://bad", ""},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, documentTitle(tc.url))
		})
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, scrape.KeyPDF, New(nil, "").Key())
}
