// metrics.go — Prometheus HTTP метрики файлового обменника.
// Регистрирует метрики: fs_http_requests_total, fs_http_request_duration_seconds.
// Бизнес-метрики (fs_operations_total и др.) экспортируются для
// обновления из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fs_http_requests_total",
			Help: "Общее количество HTTP-запросов",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fs_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// OperationsTotal — общее количество файловых операций.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fs_operations_total",
			Help: "Общее количество файловых операций",
		},
		[]string{"operation", "result"},
	)

	// UploadBytesTotal — суммарный объём принятых данных.
	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fs_upload_bytes_total",
			Help: "Суммарный объём загруженных данных в байтах",
		},
	)

	// RateLimitedTotal — количество отклонённых rate limiter-ом запросов.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fs_rate_limited_total",
			Help: "Количество запросов, отклонённых rate limiter-ом",
		},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (имена файлов заменяются на {name} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// filesPrefix — префикс маршрутов с именем файла в пути.
const filesPrefix = "/api/v1/files/"

// normalizePath заменяет сегмент имени файла на {name} для предотвращения
// взрывного роста кардинальности метрик.
// /api/v1/files/1693230000000-report.pdf/download → /api/v1/files/{name}/download
func normalizePath(path string) string {
	if !strings.HasPrefix(path, filesPrefix) {
		return path
	}

	rest := path[len(filesPrefix):]
	switch rest {
	case "upload", "archive", "delete":
		// фиксированные подмаршруты без имени файла
		return path
	}

	name, suffix, _ := strings.Cut(rest, "/")
	if name == "" {
		return path
	}
	if suffix == "" {
		return filesPrefix + "{name}"
	}
	return filesPrefix + "{name}/" + suffix
}
