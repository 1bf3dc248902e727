package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gridpoint/meter-export/config"
	"github.com/gridpoint/meter-export/internal/data"
	"github.com/gridpoint/meter-export/internal/domain/model"
	"github.com/gridpoint/meter-export/internal/export"
	httpx "github.com/gridpoint/meter-export/internal/http"
	"github.com/gridpoint/meter-export/internal/observability/statsd"
	"github.com/gridpoint/meter-export/internal/service"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
const shutdownWaitTimeout = 15 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Export        *service.ExportService
	Worker        *service.Worker
	HealthChecks  []httpx.HealthCheck
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "meter_export",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// NewServices wires repositories, adapters and services from shared infrastructure.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := deps.Config
	if cfg == nil {
		return ServiceContainer{}, errors.New("app config is required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database handle is required")
	}

	observability := buildObservability(logger, cfg.Observability)

	jobRepo := data.NewJobRepo(deps.DB, data.RepoConfig{Logger: logger})

	queue, err := data.NewRedisQueue(deps.RedisClient, data.QueueConfig{
		Key:            cfg.Queue.Key,
		MaxAttempts:    cfg.Queue.MaxAttempts,
		DequeueTimeout: cfg.Worker.DequeueTimeout,
		Logger:         logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create task queue: %w", err)
	}

	store, err := export.NewFileStore(cfg.Export.Directory)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create artifact store: %w", err)
	}

	generator := export.NewSyntheticGenerator(cfg.Export.SampleInterval)

	exportSvc, err := service.NewExportService(service.ExportServiceOptions{
		Repo:  jobRepo,
		Queue: queue,
		Store: store,
		Config: service.ExportServiceConfig{
			Bounds: model.RangeBounds{
				Min: cfg.Export.MinRange,
				Max: cfg.Export.MaxRange,
			},
			BaseURL: cfg.HTTP.BaseURL,
		},
		Logger:  logger,
		Metrics: observability.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create export service: %w", err)
	}

	worker, err := service.NewWorker(service.WorkerOptions{
		Repo:      jobRepo,
		Queue:     queue,
		Store:     store,
		Generator: generator,
		Logger:    logger,
		Metrics:   observability.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create worker: %w", err)
	}

	return ServiceContainer{
		Export: exportSvc,
		Worker: worker,
		HealthChecks: []httpx.HealthCheck{
			{Name: "database", Check: deps.DB.PingContext},
			{Name: "queue", Check: queue.Health},
		},
		Observability: observability,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	var httpServer *http.Server
	if enabled[config.ServiceModeHTTP] {
		httpServer = StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	if enabled[config.ServiceModeWorker] {
		startWorkerPool(groupCtx, group, workerPoolConfig{
			Worker: cfg.Services.Worker,
			Count:  cfg.Config.Worker.Count,
			Logger: logger,
		})
	}

	// Block until a signal arrives or a worker goroutine fails.
	<-groupCtx.Done()
	logger.Info("shutting down services...")
	stop()

	var shutdownErr error
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()
		shutdownErr = ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  httpServer,
			Logger:  logger,
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if sink := cfg.Services.Observability.MetricsSink; sink != nil {
		if err := sink.Close(); err != nil {
			logger.Warn("close metrics sink failed", "error", err)
		}
	}

	return shutdownErr
}

// workerPoolConfig groups parameters for the export worker pool.
type workerPoolConfig struct {
	Worker *service.Worker
	Count  int
	Logger *slog.Logger
}

// startWorkerPool launches Count worker goroutines on the errgroup. Workers
// run until the group context is canceled.
func startWorkerPool(ctx context.Context, group *errgroup.Group, cfg workerPoolConfig) {
	count := cfg.Count
	if count < 1 {
		count = 1
	}

	for i := range count {
		id := i
		group.Go(func() error {
			if cfg.Logger != nil {
				cfg.Logger.InfoContext(ctx, "export worker started", "worker", id)
			}
			err := cfg.Worker.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("export worker pool started", "count", count)
	}
}
