package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aberhamm/gpt-researcher/internal/database"
	"github.com/aberhamm/gpt-researcher/internal/scrape"
)

func newTestServer(t *testing.T, sink scrape.Sink) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(sink, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	var body map[string]string
	status := getJSON(t, srv.URL+"/healthz", &body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", body["status"])
}

func TestReadyzWithoutSink(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	var body map[string]string
	status := getJSON(t, srv.URL+"/readyz", &body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "disabled", body["sink"])
}

func TestGetJobRoundTrip(t *testing.T) {
	t.Parallel()

	sink := database.NewMemory()
	jobID, err := sink.CreateJob(context.Background(), "test query", scrape.JobMeta{})
	require.NoError(t, err)

	srv := newTestServer(t, sink)

	var body struct {
		Job scrape.JobRecord `json:"job"`
	}
	status := getJSON(t, srv.URL+"/v1/jobs/"+jobID, &body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, jobID, body.Job.ID)
	require.Equal(t, "test query", body.Job.Query)

	status = getJSON(t, srv.URL+"/v1/jobs/unknown-id", nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestGetPages(t *testing.T) {
	t.Parallel()

	sink := database.NewMemory()
	ctx := context.Background()
	jobID, err := sink.CreateJob(ctx, "q", scrape.JobMeta{})
	require.NoError(t, err)
	_, err = sink.InsertPage(ctx, scrape.PageRecord{
		JobID:   jobID,
		URL:     "https://example.com/a",
		Content: "content",
	})
	require.NoError(t, err)

	srv := newTestServer(t, sink)

	var body struct {
		JobID string              `json:"job_id"`
		Pages []scrape.PageRecord `json:"pages"`
	}
	status := getJSON(t, srv.URL+"/v1/jobs/"+jobID+"/pages", &body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, jobID, body.JobID)
	require.Len(t, body.Pages, 1)
	require.Equal(t, "https://example.com/a", body.Pages[0].URL)
}

func TestGetPagesUnknownJob(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, database.NewMemory())
	status := getJSON(t, srv.URL+"/v1/jobs/ghost/pages", nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
