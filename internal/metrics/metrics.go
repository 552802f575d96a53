// Package metrics exposes Prometheus counters for registry store operations.
// A Recorder owns its own registry so tests and multiple stores in one
// process never collide on the default global registerer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 查询结果标签取值。
const (
	ResultOK       = "ok"
	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Recorder 聚合存储层的计数器；nil Recorder 上的所有方法均为空操作。
type Recorder struct {
	registry *prometheus.Registry

	publishes       *prometheus.CounterVec
	queries         *prometheus.CounterVec
	downloads       *prometheus.CounterVec
	downloadedBytes prometheus.Counter
	fallbacks       prometheus.Counter
}

// NewRecorder 创建并注册全部指标。
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pkgstore",
			Name:      "publishes_total",
			Help:      "Package publishes by outcome.",
		}, []string{"result"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pkgstore",
			Name:      "queries_total",
			Help:      "Index queries by outcome.",
		}, []string{"result"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pkgstore",
			Name:      "downloads_total",
			Help:      "Content downloads by outcome.",
		}, []string{"result"}),
		downloadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pkgstore",
			Name:      "downloaded_bytes_total",
			Help:      "Bytes of package content served.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pkgstore",
			Name:      "fallback_sources_resolved_total",
			Help:      "Fallback registries resolved from index config.",
		}),
	}
	r.registry.MustRegister(r.publishes, r.queries, r.downloads, r.downloadedBytes, r.fallbacks)
	return r
}

func (r *Recorder) Publish(result string) {
	if r == nil {
		return
	}
	r.publishes.WithLabelValues(result).Inc()
}

func (r *Recorder) Query(result string) {
	if r == nil {
		return
	}
	r.queries.WithLabelValues(result).Inc()
}

// Download 记录一次下载，found 时累计字节数。
func (r *Recorder) Download(result string, size int) {
	if r == nil {
		return
	}
	r.downloads.WithLabelValues(result).Inc()
	if result == ResultFound {
		r.downloadedBytes.Add(float64(size))
	}
}

func (r *Recorder) FallbacksResolved(n int) {
	if r == nil {
		return
	}
	r.fallbacks.Add(float64(n))
}

// Gatherer 暴露底层 registry，便于测试读取指标。
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler 返回 Prometheus 文本格式的 HTTP handler。
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
