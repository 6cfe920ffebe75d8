// Package grpc implements the gRPC transport for ttsbroker.
//
// The transport serves the standard grpc.health.v1 Health service so
// orchestrators and service meshes can health-check the broker over gRPC. The
// overall status and the "ttsbroker.TTS" service status follow the speech
// engine's availability. Server reflection is enabled for grpcurl.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/nadzzz/ttsbroker/internal/transport"
	"github.com/nadzzz/ttsbroker/internal/tts"
)

// ServiceName is the health service name reported for the speech pipeline.
const ServiceName = "ttsbroker.TTS"

// Transport implements transport.Transport over gRPC.
type Transport struct {
	addr   string
	engine tts.Synthesizer

	mu     sync.Mutex
	server *grpc.Server
	health *health.Server
}

// New creates a new gRPC transport bound to addr (host:port) reporting the
// health of engine.
func New(addr string, engine tts.Synthesizer) *Transport {
	return &Transport{addr: addr, engine: engine}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server on the configured address.
func (t *Transport) Listen(ctx context.Context, _ transport.Handler) error {
	lis, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "addr", lis.Addr().String())
	return t.Serve(ctx, lis)
}

// Serve runs the gRPC server on lis until ctx is cancelled.
func (t *Transport) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	t.mu.Lock()
	t.server = srv
	t.health = hs
	t.mu.Unlock()

	t.Refresh()

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		_ = t.Close()
	}()

	if err := srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Refresh publishes the engine's current availability to the health service.
func (t *Transport) Refresh() {
	t.mu.Lock()
	hs := t.health
	t.mu.Unlock()
	if hs == nil {
		return
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !tts.Available(t.engine) {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", status)
	hs.SetServingStatus(ServiceName, status)
	slog.Debug("grpc health updated", "engine", t.engine.Name(), "status", status.String())
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	t.mu.Lock()
	srv, hs := t.server, t.health
	t.mu.Unlock()
	if hs != nil {
		hs.Shutdown()
	}
	if srv != nil {
		srv.GracefulStop()
	}
	return nil
}
