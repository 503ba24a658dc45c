package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	matching "meridian/internal/matching"
	postgresadapter "meridian/internal/matching/adapters/postgres"
	redisadapter "meridian/internal/matching/adapters/redis"
	"meridian/internal/matching/application/workers"
	"meridian/internal/matching/ports"
	"meridian/internal/platform/config"
	"meridian/internal/platform/db"
	"meridian/internal/platform/httpserver"
	"meridian/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	publisher    ports.EventPublisher
	expirySweep  workers.ExpirySweep
	outboxRelay  workers.OutboxRelay
	sweepEnabled bool
	relayEnabled bool
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)

	var capacity ports.CapacityStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		client, err := redisadapter.Connect(context.Background(), cfg.RedisURL)
		if err != nil {
			_ = pg.Close()
			return nil, err
		}
		capacity = redisadapter.NewCapacityStore(client, logger)
	} else {
		logger.Warn("redis not configured, daily capacity caps disabled",
			"event", "bootstrap_capacity_disabled",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	module := matching.NewModule(matching.Dependencies{
		Repository:   repo,
		Applications: repo,
		Companies:    repo,
		Analytics:    repo,
		Capacity:     capacity,
		Outbox:       repo,
		Clock:        postgresadapter.SystemClock{},
		IDGen:        postgresadapter.UUIDGenerator{},
		Logger:       logger,
	})

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	var publisher ports.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = messaging.NewKafkaPublisher(cfg.KafkaBrokers, logger)
	} else {
		publisher = messaging.NewBus(logger)
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := matching.NewModule(matching.Dependencies{
		Repository:   repo,
		Applications: repo,
		Companies:    repo,
		Analytics:    repo,
		Outbox:       repo,
		Clock:        postgresadapter.SystemClock{},
		IDGen:        postgresadapter.UUIDGenerator{},
		Logger:       logger,
	})

	return &WorkerApp{
		postgres:  pg,
		publisher: publisher,
		expirySweep: workers.ExpirySweep{
			Commands:      module.Commands,
			Distributions: repo,
			Clock:         postgresadapter.SystemClock{},
			BatchSize:     cfg.SweepBatchSize,
			Logger:        logger,
		},
		outboxRelay: workers.OutboxRelay{
			Outbox:    repo,
			Publisher: publisher,
			Clock:     postgresadapter.SystemClock{},
			Topic:     cfg.NotificationTopic,
			BatchSize: cfg.SweepBatchSize,
			Logger:    logger,
		},
		sweepEnabled: cfg.EnableExpirySweep,
		relayEnabled: cfg.EnableOutboxRelay,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"expiry_sweep_enabled", w.sweepEnabled,
		"outbox_relay_enabled", w.relayEnabled,
	)

	for {
		if w.sweepEnabled {
			if _, err := w.expirySweep.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.relayEnabled {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if closer, ok := w.publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil && w.logger != nil {
			w.logger.Warn("publisher close failed",
				"event", "bootstrap_publisher_close_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
