package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	shoppingapp "pantry/application/shopping"
	"pantry/cmd"
	"pantry/config"
	"pantry/infrastructure/messaging"
	"pantry/infrastructure/messaging/kafka"
	"pantry/infrastructure/persistence/gormdb"
	"pantry/pkg/logger"
	"pantry/pkg/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Worker startup failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := parseConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Log, cfg.App.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Database.Driver == cmd.DriverMock {
		logger.Info("Worker needs a database; nothing to do with the mock driver")
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := cmd.NewRegistry()
	recorder := metrics.NewCollector(registry)

	infra, err := cmd.NewInfrastructure(ctx, cfg, nil, recorder)
	if err != nil {
		return err
	}
	defer func() {
		if err := infra.Close(); err != nil {
			logger.Warn("Failed to close resources", zap.Error(err))
		}
	}()

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = publisher.Close() }()

	worker, err := gormdb.NewOutboxWorker(
		gormdb.NewOutboxRepository(infra.DB),
		publisher,
		recorder,
		gormdb.RelayOptions{
			PollInterval: cfg.Worker.PollInterval,
			BatchSize:    cfg.Worker.BatchSize,
			MaxRetries:   cfg.Worker.MaxRetries,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox worker: %w", err)
	}
	sessions := shoppingapp.NewApplicationService(infra.Sessions, infra.Ingredients, infra.UoW, infra.Locker, nil)

	logger.Info("Worker started",
		zap.Duration("poll_interval", cfg.Worker.PollInterval),
		zap.Int("batch_size", cfg.Worker.BatchSize),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Duration("stale_session_after", cfg.Worker.StaleSessionAfter),
		zap.Duration("sweep_interval", cfg.Worker.SweepInterval),
		zap.Bool("kafka", cfg.Kafka.Enabled))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("outbox worker: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sweepStaleSessions(gctx, sessions, recorder, cfg.Worker)
	})
	g.Go(func() error {
		return serveMetrics(gctx, metrics.SetupMetricsRoute(registry), cfg.Worker.MetricsPort)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Worker stopped")
	return nil
}

func newPublisher(cfg *config.Config) (messaging.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return messaging.LoggingPublisher{}, nil
	}
	p, err := kafka.NewPublisher(kafka.Config{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		WriteTimeout: cfg.Kafka.WriteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return p, nil
}

// sweepStaleSessions abandons sessions left ACTIVE longer than
// StaleSessionAfter. A failed sweep is logged and retried on the next tick.
func sweepStaleSessions(ctx context.Context, svc *shoppingapp.ApplicationService, recorder metrics.Recorder, cfg config.WorkerConfig) error {
	if cfg.SweepInterval <= 0 || cfg.StaleSessionAfter <= 0 {
		logger.Info("Stale session sweeper disabled")
		return nil
	}

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		n, err := svc.AbandonStaleSessions(ctx, cfg.StaleSessionAfter)
		if n > 0 {
			recorder.RecordSessionsAbandoned(n)
			logger.Info("Abandoned stale sessions", zap.Int("count", n))
		}
		if err != nil && ctx.Err() == nil {
			logger.Error("Stale session sweep failed", zap.Error(err))
		}
	}
}

func serveMetrics(ctx context.Context, handler http.Handler, port string) error {
	if port == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func parseConfigPath() string {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()
	return configPath
}
