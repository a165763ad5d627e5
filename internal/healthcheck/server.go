// Package healthcheck publishes the API's readiness over the standard gRPC
// health protocol, so orchestrators and load balancers can watch it
// without speaking the HTTP API.
package healthcheck

import (
	"context"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the service reported alongside the server-wide "" entry.
const ServiceName = "comicsort.Reconcile"

const checkTimeout = 2 * time.Second

// Check reports whether the API can serve requests.
type Check func(ctx context.Context) error

type Server struct {
	GRPC   *grpc.Server
	health *health.Server
	check  Check
	logger *log.Logger
}

func NewServer(check Check, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	// not serving until the first check passes
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{GRPC: gs, health: hs, check: check, logger: logger}
}

// Refresh runs the check once and publishes the result.
func (s *Server) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	err := s.check(ctx)
	if err != nil {
		s.logger.Printf("[health] not serving: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return err
}

// Watch refreshes the status every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		_ = s.Refresh(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (s *Server) Serve(lis net.Listener) error {
	return s.GRPC.Serve(lis)
}

// Stop marks everything not serving, then drains open calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.GRPC.GracefulStop()
}
