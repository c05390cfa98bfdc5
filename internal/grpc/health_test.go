package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// watchStream captures the responses sent by Watch.
type watchStream struct {
	grpc.ServerStream
	ctx  context.Context
	sent chan *grpc_health_v1.HealthCheckResponse
}

func (w *watchStream) Context() context.Context { return w.ctx }

func (w *watchStream) Send(resp *grpc_health_v1.HealthCheckResponse) error {
	w.sent <- resp
	return nil
}

func TestHealthChecker_Check(t *testing.T) {
	h := NewHealthChecker()
	h.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	resp, err := h.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	_, err = h.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "other"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	h.Shutdown()
	resp, err = h.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestHealthChecker_Watch(t *testing.T) {
	h := NewHealthChecker()
	h.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	ctx, cancel := context.WithCancel(context.Background())
	stream := &watchStream{ctx: ctx, sent: make(chan *grpc_health_v1.HealthCheckResponse, 4)}
	done := make(chan error, 1)
	go func() {
		done <- h.Watch(&grpc_health_v1.HealthCheckRequest{Service: ServiceName}, stream)
	}()

	next := func() grpc_health_v1.HealthCheckResponse_ServingStatus {
		select {
		case resp := <-stream.sent:
			return resp.Status
		case <-time.After(2 * time.Second):
			t.Fatal("no health update")
			return grpc_health_v1.HealthCheckResponse_UNKNOWN
		}
	}

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, next())
	h.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, next())

	cancel()
	select {
	case err := <-done:
		assert.Equal(t, codes.Canceled, status.Code(err))
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestHealthChecker_WatchUnknownService(t *testing.T) {
	h := NewHealthChecker()
	ctx, cancel := context.WithCancel(context.Background())
	stream := &watchStream{ctx: ctx, sent: make(chan *grpc_health_v1.HealthCheckResponse, 1)}
	cancel()

	_ = h.Watch(&grpc_health_v1.HealthCheckRequest{Service: "missing"}, stream)
	resp := <-stream.sent
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVICE_UNKNOWN, resp.Status)
}
