// Package metrics описывает Prometheus-метрики приёма частей и склейки.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chunkd"

// Metrics хранит все метрики сервиса. Регистрируются в собственном реестре,
// чтобы несколько серверов в одном процессе (тесты) не конфликтовали.
type Metrics struct {
	registry *prometheus.Registry

	ChunksReceived *prometheus.CounterVec
	ChunkBytes     prometheus.Counter
	Merges         *prometheus.CounterVec
	MergeBytes     prometheus.Counter
	MergeDuration  prometheus.Histogram
	MergesInFlight prometheus.Gauge
	SweptChunks    prometheus.Counter
}

// New создаёт набор метрик в новом реестре.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ChunksReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_received_total",
			Help:      "Chunk upload attempts by result",
		}, []string{"result"}),
		ChunkBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_bytes_total",
			Help:      "Bytes persisted to the chunk store",
		}),
		Merges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Finished merge attempts by terminal event",
		}, []string{"outcome"}),
		MergeBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_bytes_total",
			Help:      "Bytes appended to final artifacts",
		}),
		MergeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_duration_seconds",
			Help:      "Wall time of merge attempts",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 10),
		}),
		MergesInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "merges_in_flight",
			Help:      "Merges currently running",
		}),
		SweptChunks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_chunks_total",
			Help:      "Abandoned chunk files removed by GC",
		}),
	}
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry нужен тестам для чтения значений.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveChunk учитывает одну попытку приёма части.
func (m *Metrics) ObserveChunk(result string, bytes int64) {
	if m == nil {
		return
	}
	m.ChunksReceived.WithLabelValues(result).Inc()
	if bytes > 0 {
		m.ChunkBytes.Add(float64(bytes))
	}
}

// MergeStarted отмечает начало склейки и возвращает функцию завершения.
func (m *Metrics) MergeStarted() func(outcome string, bytes int64) {
	if m == nil {
		return func(string, int64) {}
	}

	start := time.Now()
	m.MergesInFlight.Inc()
	return func(outcome string, bytes int64) {
		m.MergesInFlight.Dec()
		m.Merges.WithLabelValues(outcome).Inc()
		m.MergeDuration.Observe(time.Since(start).Seconds())
		if bytes > 0 {
			m.MergeBytes.Add(float64(bytes))
		}
	}
}

// ObserveSweep учитывает файлы, удалённые сборщиком.
func (m *Metrics) ObserveSweep(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SweptChunks.Add(float64(n))
}
