package node

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"consistenthasher/internal/ring"
)

type statsSource interface {
	Stats() ring.Stats
}

// ringCollector exports the ring size as gauges, read on every scrape.
type ringCollector struct {
	src     statsSource
	buckets *prometheus.Desc
	vnodes  *prometheus.Desc
	members *prometheus.Desc
}

func newRingCollector(src statsSource) *ringCollector {
	return &ringCollector{
		src:     src,
		buckets: prometheus.NewDesc("ringd_buckets", "Number of buckets registered on the ring.", nil, nil),
		vnodes:  prometheus.NewDesc("ringd_virtual_nodes", "Number of virtual node positions on the ring.", nil, nil),
		members: prometheus.NewDesc("ringd_members", "Number of members placed on the ring.", nil, nil),
	}
}

func (c *ringCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.buckets
	ch <- c.vnodes
	ch <- c.members
}

func (c *ringCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.buckets, prometheus.GaugeValue, float64(s.Buckets))
	ch <- prometheus.MustNewConstMetric(c.vnodes, prometheus.GaugeValue, float64(s.VirtualNodes))
	ch <- prometheus.MustNewConstMetric(c.members, prometheus.GaugeValue, float64(s.Members))
}

// requestMetrics counts and times ring service calls.
type requestMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newRequestMetrics(reg prometheus.Registerer) *requestMetrics {
	m := &requestMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ringd_requests_total",
			Help: "Ring service requests by method and status code.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ringd_request_duration_seconds",
			Help:    "Ring service request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// interceptor records metrics and logs every unary call.
func (m *requestMetrics) interceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		m.requests.WithLabelValues(info.FullMethod, code.String()).Inc()
		m.duration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		logger.Debug("request",
			zap.String("method", info.FullMethod),
			zap.Stringer("code", code),
			zap.Duration("took", time.Since(start)),
		)
		return resp, err
	}
}
