// Prometheus 指标导出
package server

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 包含所有 API Server 指标
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics 创建指标实例，挂在独立 registry 上避免重复注册冲突
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
	}
}

// MetricsMiddleware 创建 HTTP 指标中间件
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		// 包装 ResponseWriter 以捕获状态码
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter 包装 http.ResponseWriter 以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// pathRules 路径规范化规则，将 ID/token 段替换为占位符避免高基数
var pathRules = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`^/api/v1/bootcamps/radius/[^/]+/[^/]+$`), "/api/v1/bootcamps/radius/{zipcode}/{distance}"},
	{regexp.MustCompile(`^/api/v1/bootcamps/[^/]+/course$`), "/api/v1/bootcamps/{id}/course"},
	{regexp.MustCompile(`^/api/v1/bootcamp/[^/]+/photo$`), "/api/v1/bootcamp/{id}/photo"},
	{regexp.MustCompile(`^/api/v1/bootcamp/[^/]+/courses$`), "/api/v1/bootcamp/{id}/courses"},
	{regexp.MustCompile(`^/api/v1/bootcamp/[^/]+$`), "/api/v1/bootcamp/{id}"},
	{regexp.MustCompile(`^/api/v1/course/[^/]+$`), "/api/v1/course/{id}"},
	{regexp.MustCompile(`^/api/v1/auth/resetpassword/[^/]+$`), "/api/v1/auth/resetpassword/{token}"},
}

// normalizePath 规范化路径
func normalizePath(path string) string {
	for _, rule := range pathRules {
		if rule.re.MatchString(path) {
			return rule.replacement
		}
	}
	return path
}

// Handler 返回暴露本实例指标的 Prometheus HTTP Handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
