package database

import (
	"net"

	"clip_service/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer gRPC server that only exposes grpc.health.v1.Health
type HealthServer struct {
	Server *grpc.Server
	Health *health.Server
}

// NewHealthServer create grpc server with health service registered
func NewHealthServer() *HealthServer {
	s := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	return &HealthServer{Server: s, Health: h}
}

// SetServing set serving status for service ("" is the overall status)
func (h *HealthServer) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.Health.SetServingStatus(service, status)
}

// Serve listen addr and serve, blocking
func (h *HealthServer) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.Log.Info("gRPC health server listening", zap.String("addr", addr))
	return h.Server.Serve(lis)
}

// Stop graceful stop
func (h *HealthServer) Stop() {
	h.Health.Shutdown()
	h.Server.GracefulStop()
}
