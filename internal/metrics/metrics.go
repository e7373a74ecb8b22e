// metrics содержит Prometheus-метрики кэша лент и удалённых источников.
package metrics

import (
	"context"
	"time"

	"github.com/pribylovaa/catchup/internal/feed"
	"github.com/pribylovaa/catchup/internal/models"
	"github.com/pribylovaa/catchup/internal/remote"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catchup"

// Metrics — набор метрик сервиса.
//
//   - catchup_feed_pages_total{service,outcome} — исходы feed.Cache.GetPage;
//   - catchup_source_fetch_duration_seconds{service,result} — длительность загрузки страниц из источников.
type Metrics struct {
	pages *prometheus.CounterVec
	fetch *prometheus.HistogramVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "pages_total",
			Help:      "Outcomes of paged feed reads.",
		}, []string{"service", "outcome"}),
		fetch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of remote page fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "result"}),
	}

	reg.MustRegister(m.pages, m.fetch)

	return m
}

// Record реализует feed.Recorder.
func (m *Metrics) Record(serviceType string, outcome feed.Outcome) {
	m.pages.WithLabelValues(serviceType, string(outcome)).Inc()
}

// InstrumentSource оборачивает источник замером длительности загрузки.
// result — ok или класс ошибки (transport, backend, canceled, unknown).
func (m *Metrics) InstrumentSource(src feed.Source) feed.Source {
	return &instrumented{next: src, m: m}
}

type instrumented struct {
	next feed.Source
	m    *Metrics
}

func (s *instrumented) FetchPage(ctx context.Context, serviceType string, page int) ([]models.FeedItem, error) {
	start := time.Now()
	items, err := s.next.FetchPage(ctx, serviceType, page)

	result := "ok"
	if err != nil {
		result = remote.KindOf(err).String()
	}
	s.m.fetch.WithLabelValues(serviceType, result).Observe(time.Since(start).Seconds())

	return items, err
}

var _ feed.Recorder = (*Metrics)(nil)
