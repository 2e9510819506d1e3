// Package grpcserver runs the gRPC health endpoint used by orchestrators to
// probe the API process.
package grpcserver

import (
	"context"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Service is the health service name reported alongside the overall status.
const Service = "pontofacil.API"

// Probe owns the gRPC server and its health state.
type Probe struct {
	srv    *grpc.Server
	health *health.Server
	log    *zap.Logger
}

// NewProbe builds a server that starts out NOT_SERVING.
func NewProbe(log *zap.Logger, dev bool) *Probe {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			shieldPanics(log),
			accessLog(log),
		),
	)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	if dev {
		reflection.Register(srv)
	}
	return &Probe{srv: srv, health: hs, log: log}
}

// Serve blocks until the listener fails or Stop is called.
func (p *Probe) Serve(lis net.Listener) error {
	p.log.Info("grpc health listening", zap.String("addr", lis.Addr().String()))
	return p.srv.Serve(lis)
}

// Ready flips every service to SERVING.
func (p *Probe) Ready() {
	p.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	p.health.SetServingStatus(Service, healthpb.HealthCheckResponse_SERVING)
}

// Stop reports NOT_SERVING and drains in-flight calls, forcing a stop once
// ctx is done.
func (p *Probe) Stop(ctx context.Context) {
	p.health.Shutdown()

	done := make(chan struct{})
	go func() {
		p.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		p.srv.Stop()
	}
}
