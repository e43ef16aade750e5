package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/rcastell/homestock/internal/metrics"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Metrics records request count, latency and in-flight gauge for every route.
func Metrics(serviceName string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if template, err := route.GetPathTemplate(); err == nil {
					path = template
				}
			}

			metrics.RequestsInFlight.WithLabelValues(serviceName).Inc()
			defer metrics.RequestsInFlight.WithLabelValues(serviceName).Dec()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sw, r)

			metrics.RequestDuration.WithLabelValues(serviceName, r.Method, path).Observe(time.Since(start).Seconds())
			metrics.RequestsTotal.WithLabelValues(serviceName, r.Method, path, strconv.Itoa(sw.status)).Inc()
		})
	}
}
