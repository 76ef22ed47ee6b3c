package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMiddleware считает HTTP-метрики визуализатора. Маршруты
// города делятся на два профиля: пикинг и ввод камеры идут десятками
// запросов в секунду и укладываются в миллисекунды, а рескан
// (/api/admin/rescan) обходит файловую систему и может занимать
// секунды. Корзины гистограммы покрывают оба профиля.
//
// Метрики:
// * {ns}_http_request_duration_seconds{method,route,code} — histogram
// * {ns}_http_requests_inflight — gauge
// * {ns}_http_request_errors_total{method,route,code} — counter (4xx/5xx)
// * {ns}_http_slow_requests_total{route} — counter (дольше slowThreshold)
type PrometheusMiddleware struct {
	reqDuration *prometheus.HistogramVec
	reqInflight prometheus.Gauge
	reqErrors   *prometheus.CounterVec
	reqSlow     *prometheus.CounterVec
}

// slowThreshold отделяет рескан-класс запросов от интерактивных
const slowThreshold = time.Second

// NewPrometheusMiddleware создаёт middleware и регистрирует метрики
// в дефолтном регистре
func NewPrometheusMiddleware(namespace string) *PrometheusMiddleware {
	pm := &PrometheusMiddleware{
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов к визуализатору города.",
			Buckets:   []float64{0.001, 0.005, 0.02, 0.1, 0.5, 1, 2.5, 10},
		}, []string{"method", "route", "code"}),
		reqInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_inflight",
			Help:      "Число запросов, обрабатываемых в данный момент.",
		}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_errors_total",
			Help:      "Запросы, завершившиеся статусом 4xx/5xx.",
		}, []string{"method", "route", "code"}),
		reqSlow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_slow_requests_total",
			Help:      "Запросы дольше порога медленности (рескан-класс).",
		}, []string{"route"}),
	}

	prometheus.MustRegister(pm.reqDuration, pm.reqInflight, pm.reqErrors, pm.reqSlow)
	return pm
}

// Handler возвращает gin.HandlerFunc для router.Use()
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		pm.reqInflight.Inc()
		c.Next()
		pm.reqInflight.Dec()

		elapsed := time.Since(start)
		code := strconv.Itoa(c.Writer.Status())
		route := routeLabel(c)
		method := c.Request.Method

		pm.reqDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
		if c.Writer.Status() >= 400 {
			pm.reqErrors.WithLabelValues(method, route, code).Inc()
		}
		if elapsed > slowThreshold {
			pm.reqSlow.WithLabelValues(route).Inc()
		}
	}
}

// routeLabel возвращает шаблон маршрута, а не сырой путь: метка
// /api/city/blocks/:id не взрывает кардинальность по каждому ID.
// Не-матченные запросы сворачиваются в одно значение.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// RegisterMetricsEndpoint добавляет GET /metrics в указанный router
func (pm *PrometheusMiddleware) RegisterMetricsEndpoint(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
