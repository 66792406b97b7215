package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vietddude/lazygate/internal/gateway"
	"github.com/vietddude/lazygate/internal/infra/database"
)

// Config holds the application configuration.
type Config struct {
	Port         int
	GRPCPort     int // 0 disables the gRPC health service
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Production   bool
	Database     database.Config
}

// Gateway wires the connector, the request pipeline and the servers.
type Gateway struct {
	cfg        Config
	connector  database.Connector
	conns      *gateway.ConnectionManager
	router     *gateway.Router
	handler    http.Handler
	httpServer *http.Server
	listener   net.Listener
	grpcServer *grpc.Server
	grpcHealth *health.Server
	grpcLis    net.Listener
	log        *slog.Logger
}

// NewGateway builds the pipeline. Nothing connects until the first request.
func NewGateway(cfg Config, log *slog.Logger) (*Gateway, error) {
	if log == nil {
		log = slog.Default()
	}

	connector, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to init database connector: %w", err)
	}

	g := &Gateway{
		cfg:       cfg,
		connector: connector,
		conns:     gateway.NewConnectionManager(connector, log),
		router:    gateway.NewRouter(),
		log:       log,
	}
	g.registerHealthRoutes()

	pipeline := gateway.NewPipeline(
		gateway.NewFailureClassifier(cfg.Production, log).WithTagger(database.Detect),
		log,
		gateway.RequestID(),
		gateway.ConnectionGate(g.conns),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", pipeline.Then(g.router.Serve))
	g.handler = mux

	if cfg.GRPCPort > 0 {
		g.grpcHealth = health.NewServer()
		g.grpcHealth.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		g.grpcServer = grpc.NewServer()
		healthpb.RegisterHealthServer(g.grpcServer, g.grpcHealth)
	}

	return g, nil
}

// Router exposes the router so application handlers can be registered.
func (g *Gateway) Router() *gateway.Router {
	return g.router
}

// Handler returns the root HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Connected reports whether the lazy connect has succeeded.
func (g *Gateway) Connected() bool {
	return g.conns.Connected()
}

// Addr returns the HTTP listen address once started.
func (g *Gateway) Addr() string {
	if g.listener == nil {
		return ""
	}
	return g.listener.Addr().String()
}

// GRPCAddr returns the gRPC listen address once started.
func (g *Gateway) GRPCAddr() string {
	if g.grpcLis == nil {
		return ""
	}
	return g.grpcLis.Addr().String()
}

// Start binds the listeners and serves in the background.
func (g *Gateway) Start(ctx context.Context) error {
	g.conns.OnConnected(func() {
		if g.grpcHealth != nil {
			g.grpcHealth.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		}
		// Start DB Metrics Collector
		if sqlConn, ok := g.connector.(*database.SQLConnector); ok {
			sqlConn.StartMetricsCollector(ctx, 15*time.Second)
		}
	})

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", g.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", g.cfg.Port, err)
	}
	g.listener = lis
	g.httpServer = &http.Server{
		Handler:      g.handler,
		ReadTimeout:  g.cfg.ReadTimeout,
		WriteTimeout: g.cfg.WriteTimeout,
	}

	go func() {
		if err := g.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.log.Error("HTTP server failed", "error", err)
		}
	}()
	g.log.Info("HTTP server listening", "addr", lis.Addr().String(), "driver", g.connector.Driver())

	if g.grpcServer != nil {
		grpcLis, err := net.Listen("tcp", fmt.Sprintf(":%d", g.cfg.GRPCPort))
		if err != nil {
			_ = g.httpServer.Close()
			return fmt.Errorf("failed to listen on grpc port %d: %w", g.cfg.GRPCPort, err)
		}
		g.grpcLis = grpcLis

		go func() {
			if err := g.grpcServer.Serve(grpcLis); err != nil {
				g.log.Error("gRPC health server failed", "error", err)
			}
		}()
		g.log.Info("gRPC health server listening", "addr", grpcLis.Addr().String())
	}

	return nil
}

// Stop shuts the servers down and releases the shared connection.
func (g *Gateway) Stop(ctx context.Context) error {
	g.log.Info("Stopping gateway...")

	if g.grpcServer != nil {
		g.grpcHealth.Shutdown()
		g.grpcServer.GracefulStop()
	}

	var errs []error
	if g.httpServer != nil {
		if err := g.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}

	if err := g.connector.Close(ctx); err != nil {
		g.log.Warn("Failed to close database", "error", err)
		errs = append(errs, fmt.Errorf("database close: %w", err))
	}

	return errors.Join(errs...)
}
