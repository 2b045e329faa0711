package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"book_search/internal/logger"
	"book_search/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// unmatchedRoute — общая метка для запросов, которые не попали ни в один маршрут
// (404 сканеров, 405). Сырой путь в метку не кладём: иначе число серий не ограничено.
const unmatchedRoute = "unmatched"

// routeLabel returns the ServeMux pattern that handled r, e.g. "GET /api/shelf".
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return unmatchedRoute
	}
	return r.Pattern
}

// requestLogger — логирует и считает каждый запрос. У каждого запроса в контексте свой id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// 1. Id запроса и обёртка, запоминающая статус
		req := r.WithContext(logger.WithNewID(r.Context()))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		// 2. Обработка. ServeMux записывает найденный шаблон в req.Pattern
		next.ServeHTTP(rec, req)

		// 3. Метрики по шаблону маршрута, лог по реальному пути
		took := time.Since(start)
		route := routeLabel(req)
		metrics.HttpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HttpRequestDuration.WithLabelValues(route).Observe(took.Seconds())

		logger.For(req.Context()).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"route":  route,
			"status": rec.status,
			"remote": r.RemoteAddr,
			"took":   took,
		}).Info("http.request")
	})
}
