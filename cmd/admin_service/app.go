package adminservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"ride-console/internal/general/config"
	"ride-console/internal/general/jwt"
	"ride-console/internal/general/logger"
	"ride-console/internal/general/postgres"
	"ride-console/internal/general/rabbitmq"
	"ride-console/internal/general/telemetry"
	"ride-console/internal/ports"
	"ride-console/internal/software/adminboard/handler"
	"ride-console/internal/software/adminboard/service"

	"golang.org/x/sync/errgroup"
)

// Run wires the ride aggregation service and blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string, maxConcurrent int) error {
	// logger with a static request ID for startup logs
	logger := logger.New("admin-service")
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, map[string]any{"path": configPath})
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	jwtManager, err := jwt.NewManager(cfg.JWT.SecretKey, cfg.JWT.TokenTTL)
	if err != nil {
		logger.Error(ctx, "jwt_setup_failed", "Failed to initialize JWT manager", err, nil)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	// driver telemetry: the Postgres coordinate table or the live RabbitMQ broadcast
	var telemetryRepo ports.TelemetryRepository
	switch cfg.Monitor.TelemetrySource {
	case config.TelemetrySourceRabbitMQ:
		mq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, rabbitmq.TelemetryTopology(), logger)
		if err != nil {
			logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
			return err
		}
		defer mq.Close()

		store := telemetry.NewMemoryStore()
		feed := telemetry.NewFeed(mq, store, logger, cfg.RabbitMQ.Prefetch)
		g.Go(func() error { return feed.Run(gctx) })
		telemetryRepo = store
	default:
		telemetryRepo = postgres.NewTelemetryRepo()
	}

	// read-only snapshot per request; nothing here writes
	uow := postgres.NewReadOnlyUnitOfWork(pool)
	svc := service.NewMonitorService(uow, postgres.NewRideRepo(), telemetryRepo, cfg.Monitor.TelemetryBatchSize)

	mux := http.NewServeMux()
	handler.NewMonitorHTTPHandler(svc, logger, jwtManager, pool).RegisterRoutes(mux)

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Ride aggregation service started on port %d", cfg.Services.AdminServicePort),
		map[string]any{
			"port":             cfg.Services.AdminServicePort,
			"max_concurrent":   maxConcurrent,
			"telemetry_source": cfg.Monitor.TelemetrySource,
			"batch_size":       cfg.Monitor.TelemetryBatchSize,
		},
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.AdminServicePort),
		Handler:           withConcurrencyLimit(maxConcurrent, mux),
		ReadHeaderTimeout: 5 * time.Second,                                   // time to read headers
		ReadTimeout:       10 * time.Second,                                  // time to read full request body
		WriteTimeout:      15 * time.Second,                                  // full response write timeout
		IdleTimeout:       60 * time.Second,                                  // keep-alive window
		BaseContext:       func(net.Listener) context.Context { return ctx }, // pass base ctx to all handlers
	}

	g.Go(func() error { return serve(gctx, srv, logger) })

	return g.Wait()
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, logger *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
		return nil
	case err := <-errCh:
		if err != nil {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"addr": srv.Addr})
		}
		return err
	}
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
