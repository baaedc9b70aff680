package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"consistenthasher/internal/config"
	"consistenthasher/internal/keyspace"
	"consistenthasher/internal/ring"
)

const shutdownTimeout = 5 * time.Second

// Node owns a ring and serves it over gRPC, and optionally its metrics over HTTP.
type Node struct {
	cfg        *config.Config
	logger     *zap.Logger
	ring       *ring.Ring[string, string]
	registry   *prometheus.Registry
	grpcServer *grpc.Server

	mu            sync.Mutex
	metricsServer *http.Server
}

// NewNode creates a node with a ring seeded from cfg.Buckets.
func NewNode(cfg *config.Config, logger *zap.Logger) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	rng, err := ring.New[string, string](cfg.VNodes, keyspace.StringBytes, keyspace.StringBytes, cfg.HashFunc(), ring.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	for _, b := range cfg.Buckets {
		if err := rng.AddBucket(b); err != nil {
			return nil, fmt.Errorf("seed bucket %s: %w", b, err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(newRingCollector(rng))
	metrics := newRequestMetrics(registry)

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(metrics.interceptor(logger)))
	RegisterRingServer(grpcServer, NewServer(rng, cfg.RemoveTimeout, logger))

	return &Node{
		cfg:        cfg,
		logger:     logger,
		ring:       rng,
		registry:   registry,
		grpcServer: grpcServer,
	}, nil
}

// Ring returns the ring served by the node.
func (n *Node) Ring() *ring.Ring[string, string] {
	return n.ring
}

// Registry returns the metrics registry of the node.
func (n *Node) Registry() *prometheus.Registry {
	return n.registry
}

// Start listens on the configured addresses and serves until Stop is called.
func (n *Node) Start() error {
	lis, err := net.Listen("tcp", n.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", n.cfg.ListenAddr, err)
	}

	if n.cfg.MetricsAddr != "" {
		n.startMetrics(n.cfg.MetricsAddr)
	}

	return n.Serve(lis)
}

// Serve serves the ring service on lis until Stop is called.
func (n *Node) Serve(lis net.Listener) error {
	n.logger.Info("starting node",
		zap.String("addr", lis.Addr().String()),
		zap.Int("vnodes", n.ring.VirtualNodes()),
		zap.Strings("buckets", n.ring.Buckets()),
	)
	if err := n.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func (n *Node) startMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(n.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	n.mu.Lock()
	n.metricsServer = srv
	n.mu.Unlock()

	go func() {
		n.logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			n.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully stops the node.
func (n *Node) Stop() {
	n.logger.Info("stopping node")
	n.grpcServer.GracefulStop()

	n.mu.Lock()
	srv := n.metricsServer
	n.mu.Unlock()
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			n.logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}
}
