package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMiddleware собирает метрики HTTP запросов Gin в подсистеме
// overworld_<subsystem>_*. Путь берётся из шаблона маршрута.
type PrometheusMiddleware struct {
	duration *prometheus.HistogramVec // method, route, status
	inflight prometheus.Gauge
}

// NewPrometheusMiddleware создаёт middleware и регистрирует метрики в reg
func NewPrometheusMiddleware(subsystem string, reg prometheus.Registerer) *PrometheusMiddleware {
	pm := &PrometheusMiddleware{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "overworld",
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Длительность HTTP запросов по маршруту и коду ответа.",
			Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5},
		}, []string{"method", "route", "status"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "overworld",
			Subsystem: subsystem,
			Name:      "requests_inflight",
			Help:      "HTTP запросы в обработке.",
		}),
	}
	reg.MustRegister(pm.duration, pm.inflight)
	return pm
}

// Handler возвращает middleware для router.Use()
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		pm.inflight.Inc()
		defer pm.inflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		pm.duration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// RegisterMetricsEndpoint добавляет GET /metrics с метриками из gatherer
func (pm *PrometheusMiddleware) RegisterMetricsEndpoint(r *gin.Engine, gatherer prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
