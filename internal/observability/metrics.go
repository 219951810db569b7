package observability

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

const namespace = "lc"

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	aggregateOps       *prometheus.CounterVec
	aggregateLatency   *prometheus.HistogramVec
	aggregateConflicts *prometheus.CounterVec
	aggregateRetries   *prometheus.CounterVec

	versionsWritten *prometheus.CounterVec

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	rateLimited *prometheus.CounterVec

	dbStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

var (
	llmTelemetryOnce sync.Once
	llmTelemetryOn   bool
)

func llmTelemetryEnabled() bool {
	llmTelemetryOnce.Do(func() {
		llmTelemetryOn = parseBoolEnv("LLM_TELEMETRY_ENABLED", true)
	})
	return llmTelemetryOn
}

func parseBoolEnv(key string, fallback bool) bool {
	val := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch val {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func scrapeInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"))
	if v == "" {
		return 10 * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
}

// Init builds the process-wide metrics once. It returns nil when METRICS_ENABLED
// is off, and every method is safe on a nil receiver.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

// New returns metrics bound to a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency in seconds by method/route/status.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_inflight_requests",
			Help:      "In-flight API requests.",
		}),
		aggregateOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "operations_total",
			Help:      "Aggregate write attempts by operation/status.",
		}, []string{"operation", "status"}),
		aggregateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "operation_duration_seconds",
			Help:      "Aggregate write attempt latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation", "status"}),
		aggregateConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "conflicts_total",
			Help:      "Aggregate write attempts that ended in a conflict.",
		}, []string{"operation"}),
		aggregateRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "retryable_total",
			Help:      "Aggregate write attempts that failed with a transient error.",
		}, []string{"operation"}),
		versionsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "canvas",
			Name:      "versions_written_total",
			Help:      "Canvas versions written by provenance.",
		}, []string{"update_category"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "LLM requests by model/endpoint/status.",
		}, []string{"model", "endpoint", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "LLM request latency in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"model", "endpoint", "status"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "LLM tokens by model/kind.",
		}, []string{"model", "kind"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"scope"}),
		dbStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "pool_stats",
			Help:      "database/sql pool statistics.",
		}, []string{"stat"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "up",
			Help:      "1 if the last redis ping succeeded.",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "ping_seconds",
			Help:      "Latency of the last redis ping.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.aggregateOps,
		m.aggregateLatency,
		m.aggregateConflicts,
		m.aggregateRetries,
		m.versionsWritten,
		m.llmRequests,
		m.llmLatency,
		m.llmTokens,
		m.rateLimited,
		m.dbStats,
		m.redisUp,
		m.redisPing,
	)
	return m
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// StartServer serves /metrics on addr until ctx is cancelled.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) error {
	if m == nil {
		return nil
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	if log != nil {
		log.Info("metrics server listening", "addr", addr)
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		if log != nil {
			log.Error("metrics server failed", "error", err, "addr", addr)
		}
		return err
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	operation = orUnknown(operation)
	status = orUnknown(status)
	m.aggregateOps.WithLabelValues(operation, status).Inc()
	m.aggregateLatency.WithLabelValues(operation, status).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(operation string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.WithLabelValues(orUnknown(operation)).Inc()
}

func (m *Metrics) IncAggregateRetry(operation string) {
	if m == nil {
		return
	}
	m.aggregateRetries.WithLabelValues(orUnknown(operation)).Inc()
}

func (m *Metrics) IncVersionWritten(provenance string) {
	if m == nil {
		return
	}
	m.versionsWritten.WithLabelValues(orUnknown(provenance)).Inc()
}

func (m *Metrics) IncRateLimited(scope string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(orUnknown(scope)).Inc()
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil || !llmTelemetryEnabled() {
		return
	}
	model = orUnknown(model)
	endpoint = orUnknown(endpoint)
	status = strings.TrimSpace(status)
	if status == "" {
		status = "0"
	}
	m.llmRequests.WithLabelValues(model, endpoint, status).Inc()
	if dur > 0 {
		m.llmLatency.WithLabelValues(model, endpoint, status).Observe(dur.Seconds())
	}
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

// StartDBCollector samples the gorm pool every scrape interval.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.sampleDB(db); err != nil && log != nil {
					log.Warn("metrics: db stats unavailable", "error", err)
				}
			}
		}
	}()
}

func (m *Metrics) sampleDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	stats := sqlDB.Stats()
	m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
	m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
	m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
	m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
	m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
	m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
	return nil
}

// StartRedisCollector pings rdb every scrape interval. The caller owns rdb.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
