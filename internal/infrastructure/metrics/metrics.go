// Package metrics 以獨立的 Prometheus registry 暴露服務指標。
//
// 所有方法對 nil *Metrics 皆為 no-op，停用指標時直接傳 nil 即可。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 分析結果標籤
const (
	OutcomeSuccess    = "success"
	OutcomeCacheHit   = "cache_hit"
	OutcomeUnreadable = "unreadable"
	OutcomeMalformed  = "malformed"
	OutcomeError      = "error"
)

// Metrics 服務指標
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	analyses         *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	ingredients      *prometheus.CounterVec
}

// New 創建指標並註冊到新的 registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "label_analyses_total",
			Help: "Label analyses by provider and outcome.",
		}, []string{"provider", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "label_cache_lookups_total",
			Help: "Report cache lookups by result.",
		}, []string{"result"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "label_provider_duration_seconds",
			Help:    "Latency of vision model calls.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90},
		}, []string{"provider"}),
		ingredients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "label_ingredients_total",
			Help: "Normalized ingredients by reference verification.",
		}, []string{"verified"}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.analyses,
		m.cacheLookups,
		m.providerDuration,
		m.ingredients,
	)
	return m
}

// Registry 取得底層 registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler /metrics 處理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP 記錄一次 HTTP 請求
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveAnalysis 記錄一次分析結果
func (m *Metrics) ObserveAnalysis(provider, outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(provider, outcome).Inc()
}

// ObserveCacheLookup 記錄快取查詢
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveProvider 記錄模型呼叫耗時
func (m *Metrics) ObserveProvider(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.providerDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveIngredients 記錄驗證/未驗證成分數
func (m *Metrics) ObserveIngredients(verified, unverified int) {
	if m == nil {
		return
	}
	m.ingredients.WithLabelValues("true").Add(float64(verified))
	m.ingredients.WithLabelValues("false").Add(float64(unverified))
}
