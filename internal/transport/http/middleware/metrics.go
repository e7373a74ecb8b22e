package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics считает длительность HTTP-запросов по шаблону маршрута chi
// (catchup_http_request_duration_seconds{method,route,status}).
// Неизвестные маршруты попадают в route="unmatched".
func Metrics(reg prometheus.Registerer) Middleware {
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catchup",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(hist)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := recordResponse(w)
			start := time.Now()

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}

			hist.WithLabelValues(r.Method, route, strconv.Itoa(rec.Status())).Observe(time.Since(start).Seconds())
		})
	}
}
