package sim

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Метрики симуляции. Регистрируются в глобальном регистре Prometheus
// и отдаются общим эндпоинтом /metrics.
var (
	ticksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sim",
		Name:      "ticks_total",
		Help:      "Общее число тиков симуляции.",
	})

	tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sim",
		Name:      "tick_duration_seconds",
		Help:      "Длительность одного тика.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	rebuildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sim",
		Name:      "rebuilds_total",
		Help:      "Число пересборок города.",
	})

	rebuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sim",
		Name:      "rebuild_duration_seconds",
		Help:      "Длительность сканирования и раскладки.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	blocksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sim",
		Name:      "city_blocks",
		Help:      "Количество строений в текущем снимке.",
	})

	pickRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sim",
		Name:      "pick_requests_total",
		Help:      "Число запросов пикинга.",
	})
)

func init() {
	prometheus.MustRegister(ticksTotal, tickDuration, rebuildsTotal,
		rebuildDuration, blocksGauge, pickRequests)
}
