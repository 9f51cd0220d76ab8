package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/youngmentor/Name-Spinner-Backend/internal/config"
	"github.com/youngmentor/Name-Spinner-Backend/internal/events"
	"github.com/youngmentor/Name-Spinner-Backend/internal/server"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store/memory"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store/postgres"
	historysync "github.com/youngmentor/Name-Spinner-Backend/internal/sync"
	"google.golang.org/grpc/health"
)

const healthCheckInterval = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the spinner HTTP and gRPC server",
	GroupID: "system",
	// The server does not need an API client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		st, err := openStore(cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}

		// With NATS configured, the SSE hub is fed from the NATS subscription.
		publisher, relay := connectEvents(cfg.NATSURL, logger)

		opts := []server.Option{
			server.WithPublisher(publisher),
			server.WithLocation(cfg.AnalyticsLocation),
			server.WithLogger(logger),
		}
		if relay != nil {
			opts = append(opts, server.WithRelay(relay))
		}
		srv := server.New(st, opts...)

		stopRelay, err := srv.StartRelay(context.Background())
		if err != nil {
			logger.Error("event relay disabled", "err", err)
			stopRelay = func() {}
		}

		grpcServer, healthServer := srv.NewGRPCServer(cfg.AuthToken)
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			stopRelay()
			closeEvents(publisher, relay, logger)
			st.Close()
			return err
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		healthCtx, stopHealth := context.WithCancel(context.Background())
		go watchHealth(healthCtx, srv, healthServer, clockwork.NewRealClock())

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := startScheduler(cfg, st, logger)

		logger.Info("spinner server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"auth", cfg.AuthToken != "",
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("export scheduler stopped")
		}

		stopHealth()
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		stopRelay()
		closeEvents(publisher, relay, logger)
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

func openStore(databaseURL string, logger *slog.Logger) (store.Store, error) {
	if databaseURL == config.MemoryDatabaseURL {
		logger.Warn("using in-memory store; history is lost on restart")
		return memory.New(), nil
	}
	st, err := postgres.New(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return st, nil
}

func connectEvents(natsURL string, logger *slog.Logger) (events.Publisher, *events.NATSSubscriber) {
	if natsURL == "" {
		logger.Info("events disabled (SPINNER_NATS_URL not set)")
		return &events.NoopPublisher{}, nil
	}
	pub, err := events.NewNATSPublisher(natsURL)
	if err != nil {
		logger.Error("events disabled: connecting publisher", "err", err)
		return &events.NoopPublisher{}, nil
	}
	sub, err := events.NewNATSSubscriber(natsURL)
	if err != nil {
		logger.Error("event relay disabled: connecting subscriber", "err", err)
		return pub, nil
	}
	logger.Info("events enabled", "nats_url", natsURL)
	return pub, sub
}

func closeEvents(pub events.Publisher, relay *events.NATSSubscriber, logger *slog.Logger) {
	if relay != nil {
		if err := relay.Close(); err != nil {
			logger.Error("error closing relay", "err", err)
		}
	}
	if err := pub.Close(); err != nil {
		logger.Error("error closing publisher", "err", err)
	}
}

// watchHealth keeps the gRPC health status in step with store reachability.
func watchHealth(ctx context.Context, srv *server.Server, hs *health.Server, clock clockwork.Clock) {
	srv.UpdateHealth(ctx, hs)
	ticker := clock.NewTicker(healthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			srv.UpdateHealth(ctx, hs)
		}
	}
}

func startScheduler(cfg *config.Config, st store.Store, logger *slog.Logger) *historysync.Scheduler {
	if cfg.SyncInterval <= 0 || cfg.SyncS3Bucket == "" {
		return nil
	}
	dest, err := historysync.NewS3Destination(
		context.Background(),
		cfg.SyncS3Bucket,
		cfg.SyncS3Prefix,
		cfg.SyncS3Region,
		cfg.SyncS3Endpoint,
	)
	if err != nil {
		logger.Error("failed to create S3 export destination", "err", err)
		return nil
	}
	logger.Info("S3 export enabled", "bucket", cfg.SyncS3Bucket, "prefix", cfg.SyncS3Prefix)

	scheduler := historysync.NewScheduler(st, []historysync.Destination{dest}, cfg.SyncInterval, nil, logger)
	scheduler.Start()
	logger.Info("export scheduler started", "interval", cfg.SyncInterval)
	return scheduler
}
