package consoleapp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"ride-console/internal/domain/geo"
	"ride-console/internal/domain/user"
	"ride-console/internal/general/config"
	"ride-console/internal/general/jwt"
	"ride-console/internal/general/logger"
	"ride-console/internal/general/websocket"
	"ride-console/internal/software/console"
	"ride-console/internal/software/console/client"
	"ride-console/internal/software/console/mapsync"

	"golang.org/x/sync/errgroup"
)

// serviceAccount is the token subject the console polls the aggregation service as.
const serviceAccount = "ride-console"

// Run wires the monitoring console and blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string) error {
	logger := logger.New("console")
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, map[string]any{"path": configPath})
		return err
	}

	jwtManager, err := jwt.NewManager(cfg.JWT.SecretKey, cfg.JWT.TokenTTL)
	if err != nil {
		logger.Error(ctx, "jwt_setup_failed", "Failed to initialize JWT manager", err, nil)
		return err
	}

	// aggregation service client; a poll never outlives its interval
	httpClient := &http.Client{
		Timeout: cfg.Monitor.RidesPollInterval,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 5 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConnsPerHost:   4,
		},
	}
	api := client.New(cfg.Monitor.AdminBaseURL, httpClient,
		jwtManager.TokenSource(serviceAccount, user.RoleAdmin), logger)

	hub := websocket.NewHub(logger, jwtManager)
	session := console.NewSession(console.Options{
		RidesInterval:   cfg.Monitor.RidesPollInterval,
		SummaryInterval: cfg.Monitor.SummaryPollInterval,
		Map: mapsync.Options{
			DefaultCenter: geo.LatLng{Lat: cfg.Monitor.DefaultCenter.Lat, Lon: cfg.Monitor.DefaultCenter.Lon},
			DefaultZoom:   cfg.Monitor.DefaultZoom,
			FocusZoom:     cfg.Monitor.FocusZoom,
			FitPadding:    cfg.Monitor.FitPadding,
		},
	}, api.ActiveRides, api.Summary, hub, logger)
	hub.Bind(session)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /console/ws", hub.ConnectConsole)

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Monitoring console started on port %d", cfg.Services.ConsolePort),
		map[string]any{
			"port":                  cfg.Services.ConsolePort,
			"admin_base_url":        cfg.Monitor.AdminBaseURL,
			"rides_poll_interval":   cfg.Monitor.RidesPollInterval.String(),
			"summary_poll_interval": cfg.Monitor.SummaryPollInterval.String(),
		},
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.ConsolePort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	// views are hijacked connections, which Shutdown does not close
	srv.RegisterOnShutdown(hub.Shutdown)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return session.Run(gctx) })
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
