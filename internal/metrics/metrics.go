package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	recordsProduced *prometheus.CounterVec
	agentResults    *prometheus.CounterVec
	llmFallbacks    *prometheus.CounterVec
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	newsItems       prometheus.Histogram
	watchSymbols    prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.recordsProduced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futusense_records_total",
			Help: "Total number of fusion records produced",
		},
		[]string{"symbol", "status"},
	)
	r.agentResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futusense_agent_results_total",
			Help: "Total number of agent results by mode and status",
		},
		[]string{"agent", "mode", "status"},
	)
	r.llmFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futusense_llm_fallbacks_total",
			Help: "Total number of LLM failures recovered by heuristics",
		},
		[]string{"agent", "reason"},
	)
	r.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futusense_runs_total",
			Help: "Total number of update runs",
		},
		[]string{"status"},
	)
	r.runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "futusense_run_duration_seconds",
			Help:    "Update run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)
	r.newsItems = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "futusense_news_items_per_symbol",
			Help:    "News items collected per symbol per run",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 50},
		},
	)
	r.watchSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "futusense_watch_symbols",
			Help: "Number of symbols in the watchlist",
		},
	)

	reg.MustRegister(r.recordsProduced)
	reg.MustRegister(r.agentResults)
	reg.MustRegister(r.llmFallbacks)
	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.newsItems)
	reg.MustRegister(r.watchSymbols)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordProduced records a fusion record, labelled by its plan status.
func (r *Registry) RecordProduced(symbol, status string) {
	r.recordsProduced.WithLabelValues(symbol, status).Inc()
}

// RecordAgentResult records one agent result.
func (r *Registry) RecordAgentResult(agent, mode, status string) {
	r.agentResults.WithLabelValues(agent, mode, status).Inc()
}

// RecordLLMFallback records an LLM failure recovered by heuristics.
func (r *Registry) RecordLLMFallback(agent, reason string) {
	r.llmFallbacks.WithLabelValues(agent, reason).Inc()
}

// RecordRun records a completed update run.
func (r *Registry) RecordRun(status string, duration float64) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(duration)
}

// RecordNewsCount records how many news items a symbol collected.
func (r *Registry) RecordNewsCount(count int) {
	r.newsItems.Observe(float64(count))
}

// SetWatchSize sets the watchlist size.
func (r *Registry) SetWatchSize(size int) {
	r.watchSymbols.Set(float64(size))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
