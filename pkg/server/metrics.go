package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

type metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	ops       *prometheus.CounterVec
	evaluated prometheus.Counter
	duration  *prometheus.SummaryVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classvdf_requests",
				Help: "Incremented for each API request received, labeled by path and status.",
			},
			[]string{"path", "status"},
		),
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classvdf_operations",
				Help: "Incremented for each operation, labeled by name and success.",
			},
			[]string{"op", "success"},
		),
		evaluated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "classvdf_squarings",
				Help: "Total number of squarings performed by evaluations.",
			},
		),
		duration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "classvdf_operation_duration_seconds",
				Help: "Summary of how long an operation takes to complete.",
			},
			[]string{"op"},
		),
	}
	m.registry.MustRegister(m.requests, m.ops, m.evaluated, m.duration)
	return m
}

func (m *metrics) handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
