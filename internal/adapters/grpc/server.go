package grpc

import (
	"context"

	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// InsightInternalServer exposes the mesh-internal health surface. Result
// reads happen over HTTP; the gRPC port exists for mesh probes.
type InsightInternalServer struct {
	grpc_health_v1.UnimplementedHealthServer
}

func NewInsightInternalServer() *InsightInternalServer {
	return &InsightInternalServer{}
}

func Register(server grpc.ServiceRegistrar, svc *InsightInternalServer) {
	grpc_health_v1.RegisterHealthServer(server, svc)
}

func (s *InsightInternalServer) Check(_ context.Context, _ *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func (s *InsightInternalServer) Watch(_ *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	return stream.Send(&grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING})
}
