package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var testInfo = &grpc.UnaryServerInfo{FullMethod: "/meterlens.v1.AnalysisService/Parse"}

func okHandler(ctx context.Context, req interface{}) (interface{}, error) {
	return "ok", nil
}

func TestContextMiddleware(t *testing.T) {
	t.Run("generates id", func(t *testing.T) {
		var seen string
		_, err := ContextMiddleware(context.Background(), nil, testInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
			seen = RequestIDFromContext(ctx)
			return nil, nil
		})
		require.NoError(t, err)
		assert.Len(t, seen, 36)
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "abc-123"))
		var seen string
		_, err := ContextMiddleware(ctx, nil, testInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
			seen = RequestIDFromContext(ctx)
			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "abc-123", seen)
	})

	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestRateLimitingInterceptor(t *testing.T) {
	interceptor := NewRateLimitingInterceptor(0.001, 2)

	for i := 0; i < 2; i++ {
		_, err := interceptor(context.Background(), nil, testInfo, okHandler)
		require.NoError(t, err)
	}
	_, err := interceptor(context.Background(), nil, testInfo, okHandler)
	require.Error(t, err)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestLoggingInterceptor(t *testing.T) {
	logger, hook := test.NewNullLogger()
	interceptor := NewLoggingInterceptor(logger)
	ctx := WithRequestID(context.Background(), "req-1")

	_, err := interceptor(ctx, nil, testInfo, okHandler)
	require.NoError(t, err)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "req-1", entry.Data["request_id"])
	assert.Equal(t, testInfo.FullMethod, entry.Data["method"])
	assert.Equal(t, "OK", entry.Data["code"])

	_, err = interceptor(ctx, nil, testInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.InvalidArgument, "bad")
	})
	require.Error(t, err)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "InvalidArgument", hook.LastEntry().Data["code"])
}

func TestMetricsInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	interceptor := NewMetricsInterceptor(m.Requests, m.Latency)

	_, _ = interceptor(context.Background(), nil, testInfo, okHandler)
	_, _ = interceptor(context.Background(), nil, testInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, errors.New("plain")
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("Parse", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("Parse", "Unknown")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Latency))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice should fail")
}
