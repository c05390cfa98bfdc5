// Package server exposes the analysis service over gRPC with the JSON codec,
// together with the standard health service.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	middleware "github.com/tejusbharadwaj/meterlens/internal/grpc/middlewares"
)

// ServerConfig holds configuration options for the gRPC server
type ServerConfig struct {
	CacheSize      int     // Size of the LRU cache
	RateLimit      float64 // Requests per second
	RateLimitBurst int     // Maximum burst size for rate limiting
}

// DefaultServerConfig returns a ServerConfig with sensible defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		CacheSize:      1000,
		RateLimit:      5.0,
		RateLimitBurst: 10,
	}
}

// cacheableMethods only depend on their request.
var cacheableMethods = []string{MethodParse, MethodValidate}

// ConfigureGRPCServer registers the service without any middleware (for
// development and debug only).
func ConfigureGRPCServer(svc AnalysisServer, opts ...grpc.ServerOption) *grpc.Server {
	srv := grpc.NewServer(opts...)
	RegisterAnalysisServer(srv, svc)
	return srv
}

// SetupServer initializes the server with all middleware, registering
// metrics on the default Prometheus registry.
func SetupServer(svc AnalysisServer, config ServerConfig, logger *logrus.Logger) (*grpc.Server, *HealthChecker, error) {
	return SetupServerWithRegistry(svc, config, logger, prometheus.DefaultRegisterer)
}

// SetupServerWithRegistry initializes the server with all middleware and the
// health service. Interceptors run in order: request ID, rate limit, logging,
// metrics, cache.
func SetupServerWithRegistry(
	svc AnalysisServer,
	config ServerConfig,
	logger *logrus.Logger,
	reg prometheus.Registerer,
) (*grpc.Server, *HealthChecker, error) {
	cache, err := middleware.NewResponseCache(config.CacheSize, cacheableMethods...)
	if err != nil {
		return nil, nil, err
	}
	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.ContextMiddleware, // Add request ID first
			middleware.NewRateLimitingInterceptor(config.RateLimit, config.RateLimitBurst),
			middleware.NewLoggingInterceptor(logger),
			middleware.NewMetricsInterceptor(metrics.Requests, metrics.Latency),
			cache.Interceptor(), // Cache last to avoid caching errors
		),
	)

	RegisterAnalysisServer(server, svc)

	health := NewHealthChecker()
	grpc_health_v1.RegisterHealthServer(server, health)
	health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	health.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return server, health, nil
}
