// Package metrics описывает Prometheus-метрики сервиса загрузки.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chunkmerge"

// Metrics собирает счётчики по чанкам, сборкам, GC и HTTP-запросам.
type Metrics struct {
	chunksReceived prometheus.Counter
	chunkBytes     prometheus.Counter
	merges         *prometheus.CounterVec
	mergeDuration  prometheus.Histogram
	gcRemoved      prometheus.Counter
	requests       *prometheus.CounterVec
}

// New регистрирует метрики в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		chunksReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_received_total",
			Help:      "Total number of chunks committed to staging",
		}),
		chunkBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_bytes_total",
			Help:      "Total number of chunk bytes committed to staging",
		}),
		merges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Merge attempts by result",
		}, []string{"result"}),
		mergeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_duration_seconds",
			Help:      "Merge duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		gcRemoved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gc_removed_total",
			Help:      "Staging directories removed after merge or by GC",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ChunkReceived(bytes int64) {
	m.chunksReceived.Inc()
	m.chunkBytes.Add(float64(bytes))
}

func (m *Metrics) MergeFinished(result string, d time.Duration) {
	m.merges.WithLabelValues(result).Inc()
	m.mergeDuration.Observe(d.Seconds())
}

func (m *Metrics) StagingRemoved(n int) {
	m.gcRemoved.Add(float64(n))
}

// Middleware считает HTTP-запросы по шаблону маршрута chi.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
