package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"github.com/tejusbharadwaj/meterlens/internal/api"
	"github.com/tejusbharadwaj/meterlens/internal/config"
	server "github.com/tejusbharadwaj/meterlens/internal/grpc"
	"github.com/tejusbharadwaj/meterlens/internal/scheduler"
	"github.com/tejusbharadwaj/meterlens/internal/service"
	"github.com/tejusbharadwaj/meterlens/internal/source"
)

// Command meterlens analyzes MyEnergyData consumption documents.
//
// The service supports:
//   - Parsing MyEnergyData XML into 15-minute samples
//   - Consumption statistics and a plain-text digest
//   - Prompt assembly for conversational analysis
//   - Scheduled reloading of a document from a file or URL
//   - Prometheus metrics
//
// Usage:
//
//	meterlens [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
//	-grpc-port int
//	      overrides server.grpc_port
//	-http-port int
//	      overrides server.http_port
//	-cache-size int
//	      overrides middleware.cache_size
//	-rate-limit float
//	      overrides middleware.rate_limit
//	-rate-limit-burst int
//	      overrides middleware.rate_limit_burst
func main() {
	flags := parseFlags()

	appConfig, err := config.Load(flags.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if flags.GRPCPort > 0 {
		appConfig.Server.GRPCPort = flags.GRPCPort
	}
	if flags.HTTPPort > 0 {
		appConfig.Server.HTTPPort = flags.HTTPPort
	}
	if flags.CacheSize > 0 {
		appConfig.Middleware.CacheSize = flags.CacheSize
	}
	if flags.RateLimit > 0 {
		appConfig.Middleware.RateLimit = flags.RateLimit
	}
	if flags.RateLimitBurst > 0 {
		appConfig.Middleware.RateLimitBurst = flags.RateLimitBurst
	}

	logger, err := newLogger(appConfig.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics, err := service.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatalf("Failed to register metrics: %v", err)
	}
	analyzer := service.NewAnalyzer(logger, metrics, appConfig.Display.Timezone)
	validator := service.NewRequestValidator(appConfig.Server.MaxDocumentBytes)
	dataset := source.NewDataset()

	fetcher := source.NewFetcher(source.FetcherConfig{
		Location:    appConfig.Source.Location,
		CountryHint: appConfig.Source.CountryHint,
		Timeout:     appConfig.Source.Timeout,
		MaxBytes:    int64(appConfig.Server.MaxDocumentBytes),
	}, analyzer, dataset, logger)
	reloader := scheduler.NewScheduler(fetcher, appConfig.Source.Schedule, appConfig.Source.Timeout, logger)

	srv, health, err := server.SetupServer(
		server.NewAnalysisService(analyzer, dataset, validator, appConfig.Display.Timezone),
		server.ServerConfig{
			CacheSize:      appConfig.Middleware.CacheSize,
			RateLimit:      appConfig.Middleware.RateLimit,
			RateLimitBurst: appConfig.Middleware.RateLimitBurst,
		},
		logger,
	)
	if err != nil {
		logger.Fatalf("Failed to setup server: %v", err)
	}

	restConfig := api.Config{
		MaxDocumentBytes: int64(appConfig.Server.MaxDocumentBytes),
		RateLimit:        appConfig.Middleware.RateLimit,
		RateLimitBurst:   appConfig.Middleware.RateLimitBurst,
		AllowedOrigins:   appConfig.Server.AllowedOrigins,
	}
	handler := api.NewHandler(analyzer, dataset, validator, restConfig, appConfig.Display.Timezone, logger)
	router := api.NewRouter(handler, prometheus.DefaultGatherer, restConfig)
	accessLog := logger.Writer()
	defer accessLog.Close()
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", appConfig.Server.Host, appConfig.Server.HTTPPort),
		Handler:           api.Wrap(router, accessLog, logger, restConfig),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", appConfig.Server.Host, appConfig.Server.GRPCPort))
	if err != nil {
		logger.Fatalf("Failed to listen: %v", err)
	}

	errChan := make(chan error, 2)

	if appConfig.Source.Location != "" {
		// Initial load runs before the first scheduled tick
		go reloader.Reload()
		if err := reloader.Start(); err != nil {
			logger.Fatalf("Failed to start scheduler: %v", err)
		}
	} else {
		logger.Info("No source location configured, scheduled loading disabled")
	}

	go handleShutdown(ctx, srv, health, httpServer, reloader, logger)

	logger.WithFields(logrus.Fields{
		"grpc_port": appConfig.Server.GRPCPort,
		"http_port": appConfig.Server.HTTPPort,
		"timezone":  appConfig.Display.Timezone,
	}).Info("Starting servers")

	go func() {
		if err := srv.Serve(lis); err != nil {
			errChan <- fmt.Errorf("grpc server error: %w", err)
		}
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	if err := <-errChan; err != nil {
		logger.Fatalf("Service error: %v", err)
	}
}

// Flags override config file values when set.
type Flags struct {
	ConfigPath     string
	GRPCPort       int
	HTTPPort       int
	CacheSize      int
	RateLimit      float64
	RateLimitBurst int
}

func parseFlags() *Flags {
	flags := &Flags{}

	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "Path to the config file")
	flag.IntVar(&flags.GRPCPort, "grpc-port", 0, "Overrides server.grpc_port")
	flag.IntVar(&flags.HTTPPort, "http-port", 0, "Overrides server.http_port")
	flag.IntVar(&flags.CacheSize, "cache-size", 0, "Overrides middleware.cache_size")
	flag.Float64Var(&flags.RateLimit, "rate-limit", 0, "Overrides middleware.rate_limit")
	flag.IntVar(&flags.RateLimitBurst, "rate-limit-burst", 0, "Overrides middleware.rate_limit_burst")

	flag.Parse()

	return flags
}

func newLogger(cfg config.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

// Handle graceful shutdown
func handleShutdown(
	ctx context.Context,
	srv *grpc.Server,
	health *server.HealthChecker,
	httpServer *http.Server,
	reloader *scheduler.Scheduler,
	logger *logrus.Logger,
) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Println("Context canceled, initiating shutdown")
	case sig := <-sigChan:
		logger.Printf("Received signal %v, initiating shutdown", sig)
	}

	health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown")
	}

	logger.Println("Gracefully stopping server...")
	srv.GracefulStop()
	reloader.Stop()
	logger.Println("Server stopped")
	os.Exit(0)
}
