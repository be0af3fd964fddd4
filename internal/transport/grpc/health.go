package grpc_server

import (
	"context"
	"sort"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/waste3d/courseforge/internal/infrastructure/logger"
)

// Probe проверяет одну зависимость. nil - зависимость в порядке.
type Probe func(ctx context.Context) error

const probeTimeout = 3 * time.Second

// HealthServer отвечает на grpc.health.v1.Health/Check, опрашивая зависимости на каждый запрос.
// Пустое имя сервиса означает "все сразу".
type HealthServer struct {
	healthpb.UnimplementedHealthServer
	probes map[string]Probe
	log    *logger.Logger
}

func NewHealthServer(probes map[string]Probe, log *logger.Logger) *HealthServer {
	return &HealthServer{probes: probes, log: log}
}

func (s *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	names := []string{req.GetService()}
	if req.GetService() == "" {
		names = s.names()
	} else if _, ok := s.probes[req.GetService()]; !ok {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	for _, name := range names {
		if err := s.probes[name](ctx); err != nil {
			s.log.Warn("health probe failed", "probe", name, "error", err)
			return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
		}
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

func (s *HealthServer) names() []string {
	out := make([]string, 0, len(s.probes))
	for name := range s.probes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NewServer собирает gRPC сервер с health и reflection.
func NewServer(health *HealthServer) *grpc.Server {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, health)
	reflection.Register(s)
	return s
}
