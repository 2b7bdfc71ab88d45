package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// It is passed explicitly to every component that records metrics; a nil
// *Metrics is valid everywhere and records nothing.
type Metrics struct {
	// Upstream provider metrics
	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec
	transactionsFetched     *prometheus.CounterVec
	fetchBatchesPerRequest  prometheus.Histogram
	priceFallbacksTotal     *prometheus.CounterVec

	// Pipeline metrics
	swapsParsedTotal   *prometheus.CounterVec
	pnlResolutions     *prometheus.CounterVec
	tierFailuresTotal  *prometheus.CounterVec
	estimatesPublished *prometheus.CounterVec

	// HTTP metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		upstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_requests_total",
				Help: "Total number of upstream provider requests by provider and status",
			},
			[]string{"provider", "status"},
		),
		upstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_request_duration_seconds",
				Help:    "Duration of upstream provider requests in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"provider"},
		),
		transactionsFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_fetched_total",
				Help: "Total number of transactions fetched from the primary provider",
			},
			[]string{"provider"},
		),
		fetchBatchesPerRequest: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fetch_batches_per_request",
				Help:    "Number of paginated batches requested per wallet fetch",
				Buckets: []float64{1, 2, 3, 5, 10, 20},
			},
		),
		priceFallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "price_fallbacks_total",
				Help: "Total number of times the fallback SOL price was used",
			},
			[]string{"reason"},
		),
		swapsParsedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swaps_parsed_total",
				Help: "Total number of swap transactions parsed, by outcome",
			},
			[]string{"result"},
		),
		pnlResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pnl_resolutions_total",
				Help: "Total number of PNL queries by entry point and the tier that answered",
			},
			[]string{"entry", "source"},
		),
		tierFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pnl_tier_failures_total",
				Help: "Total number of fallback tier failures by tier and error class",
			},
			[]string{"tier", "class"},
		),
		estimatesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estimates_published_total",
				Help: "Total number of tax estimate events published to NATS",
			},
			[]string{"status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 10.0},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
	}
}

// Upstream metric helpers

// RecordUpstreamRequest records one upstream HTTP call with duration.
func (m *Metrics) RecordUpstreamRequest(provider, status string, duration float64) {
	if m == nil {
		return
	}
	m.upstreamRequestsTotal.WithLabelValues(provider, status).Inc()
	m.upstreamRequestDuration.WithLabelValues(provider).Observe(duration)
}

// RecordTransactionsFetched records the outcome of one paginated wallet fetch.
func (m *Metrics) RecordTransactionsFetched(provider string, count, batches int) {
	if m == nil {
		return
	}
	m.transactionsFetched.WithLabelValues(provider).Add(float64(count))
	m.fetchBatchesPerRequest.Observe(float64(batches))
}

// RecordPriceFallback records that the fixed fallback price was returned.
func (m *Metrics) RecordPriceFallback(reason string) {
	if m == nil {
		return
	}
	m.priceFallbacksTotal.WithLabelValues(reason).Inc()
}

// Pipeline metric helpers

// RecordSwapsParsed records counted and discarded swaps from one aggregation.
func (m *Metrics) RecordSwapsParsed(counted, discarded int) {
	if m == nil {
		return
	}
	m.swapsParsedTotal.WithLabelValues("counted").Add(float64(counted))
	m.swapsParsedTotal.WithLabelValues("discarded").Add(float64(discarded))
}

// RecordPNLResolution records which tier answered a PNL query.
func (m *Metrics) RecordPNLResolution(entry, source string) {
	if m == nil {
		return
	}
	m.pnlResolutions.WithLabelValues(entry, source).Inc()
}

// RecordTierFailure records a tier that failed and fell through.
func (m *Metrics) RecordTierFailure(tier, class string) {
	if m == nil {
		return
	}
	m.tierFailuresTotal.WithLabelValues(tier, class).Inc()
}

// RecordEstimatePublished records a NATS publish attempt.
func (m *Metrics) RecordEstimatePublished(status string) {
	if m == nil {
		return
	}
	m.estimatesPublished.WithLabelValues(status).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	if m == nil {
		return
	}
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
