package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	alignment *prometheus.CounterVec
	feedSize  prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collab_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		alignment: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collab_alignment_requests_total",
			Help: "Alignment requests by response status.",
		}, []string{"status"}),
		feedSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "collab_feed_projects",
			Help: "Projects returned by the last feed request.",
		}),
	}
	m.registry.MustRegister(m.requests, m.alignment, m.feedSize)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *metrics) observeRequest(route, method string, status int) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func (m *metrics) observeAlignment(status int) {
	m.alignment.WithLabelValues(strconv.Itoa(status)).Inc()
}
