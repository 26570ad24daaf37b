// Package metrics はディレクトリサービスの Prometheus メトリクスを提供します。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "staff_directory"

// Metrics はサービス全体で共有するコレクタの集合です。
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	listedItems     prometheus.Histogram
}

// New は専用レジストリにコレクタを登録した Metrics を生成します。
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of handled requests by transport, method and outcome code.",
		}, []string{"transport", "method", "code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency by transport and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport", "method"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "department_cache_lookups_total",
			Help:      "Departments cache lookups by result.",
		}, []string{"result"}),
		listedItems: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "listed_items",
			Help:      "Number of items returned per listing page.",
			Buckets:   []float64{0, 1, 10, 25, 50, 100, 200, 500},
		}),
	}
}

// ObserveRequest はリクエスト 1 件の結果と所要時間を記録します。
func (m *Metrics) ObserveRequest(transport, method, code string, elapsed time.Duration) {
	m.requests.WithLabelValues(transport, method, code).Inc()
	m.requestDuration.WithLabelValues(transport, method).Observe(elapsed.Seconds())
}

// ObserveDepartmentCache は部署キャッシュのヒット／ミスを記録します。
func (m *Metrics) ObserveDepartmentCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveListedItems は一覧 1 ページの件数を記録します。
func (m *Metrics) ObserveListedItems(n int) {
	m.listedItems.Observe(float64(n))
}

// MustRegister は追加のコレクタを登録します。
func (m *Metrics) MustRegister(cs ...prometheus.Collector) {
	m.registry.MustRegister(cs...)
}

// Registry は内部のレジストリを返します。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler は /metrics 用の http.Handler を返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
