package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestHandlerExposesReviewMetrics checks that the instrumentation recorded
// by the pipeline is actually scrapeable through the exposition handler.
func TestHandlerExposesReviewMetrics(t *testing.T) {
	ReviewsTotal.WithLabelValues("plan", "success").Inc()
	TurnsTotal.WithLabelValues("ok").Inc()

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Contains(t, string(body), "reviewbridge_reviews_total")
	require.Contains(t, string(body), "reviewbridge_codex_turns_total")
}

// TestHandlerOnlyServesMetricsPath checks that the handler does not answer
// arbitrary paths.
func TestHandlerOnlyServesMetricsPath(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
