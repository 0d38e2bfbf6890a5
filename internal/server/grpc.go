package server

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// AnalyzerService is the health name reported for the analysis pipeline.
const AnalyzerService = "case_analyzer.v1.Analyzer"

// GRPC serves grpc.health.v1 and reflection for probes and grpcurl.
type GRPC struct {
	Server *grpc.Server
	Health *health.Server
	logger *slog.Logger
}

func NewGRPC(logger *slog.Logger) *GRPC {
	if logger == nil {
		logger = slog.Default()
	}
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	// empty string means overall server health
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(AnalyzerService, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(s)
	return &GRPC{Server: s, Health: hs, logger: logger}
}

// SetServing flips the analyzer service status, e.g. when the OCR tools disappear.
func (g *GRPC) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_SERVING
	if !ok {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	g.Health.SetServingStatus(AnalyzerService, st)
}

// Serve listens on addr until ctx ends.
func (g *GRPC) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return g.ServeListener(ctx, lis)
}

func (g *GRPC) ServeListener(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("grpc listening", "addr", lis.Addr().String())
		errCh <- g.Server.Serve(lis)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		g.Health.Shutdown()
		g.Server.GracefulStop()
		return nil
	}
}
