package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/strayaid-systems/strayaid/internal/config"
	"github.com/strayaid-systems/strayaid/internal/conversation"
	"github.com/strayaid-systems/strayaid/internal/dispatch"
	"github.com/strayaid-systems/strayaid/internal/events"
	"github.com/strayaid-systems/strayaid/internal/geo"
	"github.com/strayaid-systems/strayaid/internal/handlers"
	"github.com/strayaid-systems/strayaid/internal/identity"
	"github.com/strayaid-systems/strayaid/internal/notify"
	"github.com/strayaid-systems/strayaid/internal/registry"
	"github.com/strayaid-systems/strayaid/internal/repository"
	"github.com/strayaid-systems/strayaid/internal/scheduler"
	"github.com/strayaid-systems/strayaid/internal/server"
	"github.com/strayaid-systems/strayaid/internal/service"
	"github.com/strayaid-systems/strayaid/pkg/logging"
	natsclient "github.com/strayaid-systems/strayaid/pkg/messaging/nats"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the coordination engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	var repo repository.Repository
	if cfg.Database.Postgres.Enabled {
		dsn := cfg.Database.Postgres.DSN()

		logger.Info("running database migrations")
		m, err := migrate.New("file://migrations", dsn)
		if err != nil {
			return fmt.Errorf("init migrations: %w", err)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("run migrations: %w", err)
		}

		pg, err := repository.NewPostgresRepository(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		repo = pg
	} else {
		logger.Warn("postgres disabled, using in-memory store")
		repo = repository.NewInMemoryRepository()
	}
	defer repo.Close()

	// Event bus
	var emitter events.Emitter = events.Noop{}
	var busClient *natsclient.Client
	if cfg.NATS.Enabled {
		busClient, err = natsclient.NewClient(natsclient.Config{
			URL:           cfg.NATS.URL,
			Name:          "strayaid-engine",
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
		})
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer busClient.Drain()

		if cfg.NATS.JetStream {
			js, err := natsclient.NewJetStreamClient(natsclient.Config{
				URL:           cfg.NATS.URL,
				Name:          "strayaid-jetstream",
				MaxReconnects: cfg.NATS.MaxReconnects,
				ReconnectWait: cfg.NATS.ReconnectWait,
			})
			if err != nil {
				return fmt.Errorf("connect jetstream: %w", err)
			}
			if _, err := js.CreateOrUpdateStream(ctx, natsclient.CaseEventsStream); err != nil {
				return fmt.Errorf("ensure case events stream: %w", err)
			}
			defer js.Close()
		}

		emitter = events.NewPublisher(busClient)
	} else {
		logger.Warn("nats disabled, events will not be published")
	}

	// Read-state store
	var reads conversation.ReadState
	if cfg.Redis.Enabled {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		opts.MaxRetries = cfg.Redis.MaxRetries
		opts.PoolSize = cfg.Redis.PoolSize
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		reads = conversation.NewRedisReadState(rdb)
	} else {
		reads = conversation.NewMemoryReadState()
	}

	// Responder directory
	source := registry.NewHTTPSource(cfg.Registry.URL, cfg.Registry.FetchTimeout)
	reg := registry.New(source, cfg.Registry.RefreshInterval, logger)
	go reg.Start(ctx)
	defer reg.Stop()

	// Core engines
	coordinator := dispatch.NewCoordinator(repo, reg, emitter, logger, dispatch.Config{
		AcceptanceWindow:    cfg.Dispatch.AcceptanceWindow,
		MaxReassignments:    cfg.Dispatch.MaxReassignments,
		ResolvedGracePeriod: cfg.Dispatch.ResolvedGracePeriod,
	})
	defer coordinator.Shutdown()

	threads := conversation.NewEngine(repo, reads, emitter, logger)

	// Notification fan-out
	if cfg.Notify.Enabled && busClient != nil {
		sinks := []notify.Sink{notify.NewLogSink("default", nil, logger)}
		if cfg.Notify.SinksFile != "" {
			sinks, err = notify.LoadSinks(cfg.Notify.SinksFile, logger)
			if err != nil {
				return fmt.Errorf("load notification sinks: %w", err)
			}
		}
		fanout := notify.NewFanout(busClient, sinks, logger)
		if err := fanout.Start(); err != nil {
			return fmt.Errorf("start notification fan-out: %w", err)
		}
		defer fanout.Stop()
	}

	// Background sweeps
	sched := scheduler.New(coordinator, scheduler.Config{
		RetriageInterval: cfg.Scheduler.RetriageInterval,
		CloseInterval:    cfg.Scheduler.CloseInterval,
	}, logger)
	go sched.Start(ctx)
	defer sched.Stop()

	// HTTP API
	geocoder := geo.NewClient(cfg.Geo.URL, cfg.Geo.Timeout)
	svc := service.New(repo, coordinator, threads, geocoder, logger)

	var verifier *identity.Verifier
	if cfg.Auth.JWTSecret != "" {
		verifier = identity.NewVerifier(cfg.Auth.JWTSecret)
	} else {
		logger.Warn("jwt secret not set, using development identity headers")
	}

	h := handlers.New(svc, verifier, logger)
	router := server.NewRouter(h, cfg.Server.CORSOrigins)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("coordination engine listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", logging.Error(err))
			cancel()
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("stopped gracefully")
	return nil
}
