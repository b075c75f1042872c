package handlers

import (
	"net/http"
	"time"

	"github.com/oratio-labs/oratio-svc/internal/metrics"
)

// NewRouter assembles the HTTP surface: the answer endpoints, health,
// and per-route metrics instrumentation.
func NewRouter(answer *AnswerHandler, health *HealthHandler, collector *metrics.Collector) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/answer", instrument(collector, "/api/answer", answer.Answer))
	mux.HandleFunc("POST /api/answer/stream", instrument(collector, "/api/answer/stream", answer.AnswerStream))
	mux.HandleFunc("GET /api/health", instrument(collector, "/api/health", health.Health))
	return mux
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush forwards to the underlying writer so SSE handlers keep their
// streaming behavior behind the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func instrument(collector *metrics.Collector, path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		collector.RecordHTTPRequest(r.Method, path, rec.status, time.Since(start))
	}
}
