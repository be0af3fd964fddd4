package grpc_server

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/waste3d/courseforge/internal/infrastructure/logger"
)

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestHealthServer_Check(t *testing.T) {
	ctx := context.Background()
	s := NewHealthServer(map[string]Probe{"database": ok, "model": down}, logger.Nop())

	resp, err := s.Check(ctx, &healthpb.HealthCheckRequest{Service: "database"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	resp, err = s.Check(ctx, &healthpb.HealthCheckRequest{Service: "model"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	resp, err = s.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	_, err = s.Check(ctx, &healthpb.HealthCheckRequest{Service: "queue"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestServer_OverBufconn(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(NewHealthServer(map[string]Probe{"database": ok}, logger.Nop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
