package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	pagesExtracted  *prometheus.CounterVec
	skuLookupsTotal *prometheus.CounterVec
	receiptsTotal   prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgate_http_requests_total",
		Help: "Number of HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockgate_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	pages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgate_extraction_pages_total",
		Help: "Number of extracted document pages by outcome.",
	}, []string{"outcome"})
	skus := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgate_sku_lookups_total",
		Help: "Number of SKU lookups by outcome.",
	}, []string{"outcome"})
	receipts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockgate_receipts_confirmed_total",
		Help: "Number of confirmed transfer-in receipts.",
	})
	registry.MustRegister(requests, duration, pages, skus, receipts)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		pagesExtracted:  pages,
		skuLookupsTotal: skus,
		receiptsTotal:   receipts,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// PageExtracted counts one page extraction with the given outcome
// ("ok", "empty" or "failed").
func (m *Metrics) PageExtracted(outcome string) {
	if m == nil {
		return
	}
	m.pagesExtracted.WithLabelValues(outcome).Inc()
}

// SKULookup counts one SKU lookup with the given outcome
// ("resolved", "not_found" or "error").
func (m *Metrics) SKULookup(outcome string) {
	if m == nil {
		return
	}
	m.skuLookupsTotal.WithLabelValues(outcome).Inc()
}

// ReceiptConfirmed counts one confirmed transfer-in receipt.
func (m *Metrics) ReceiptConfirmed() {
	if m == nil {
		return
	}
	m.receiptsTotal.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
