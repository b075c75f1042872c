package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oratio-labs/oratio-svc/internal/metrics"
	"github.com/oratio-labs/oratio-svc/rag"
)

func TestRouterRoutesAndInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("oratio", reg)

	pipeline := &fakePipeline{answer: &rag.Answer{Text: "a"}}
	router := NewRouter(
		NewAnswerHandler(pipeline, nil),
		NewHealthHandler(nil, "test", nil),
		collector,
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/answer", strings.NewReader(`{"question":"q"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	// Wrong method does not match.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/answer", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	count, err := testutil.GatherAndCount(reg, "oratio_http_requests_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 2)
}
