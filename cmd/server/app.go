package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"equilibrium/internal/placement/cache"
	"equilibrium/internal/placement/enrollment"
	"equilibrium/internal/placement/events"
	"equilibrium/internal/placement/service"
	ledgerstore "equilibrium/internal/placement/store/ledger"
	memberstore "equilibrium/internal/placement/store/member"
	outboxstore "equilibrium/internal/placement/store/outbox"
	treestore "equilibrium/internal/placement/store/tree"
	"equilibrium/internal/placement/tariff"
	"equilibrium/internal/platform/config"
	"equilibrium/internal/platform/logger"
	"equilibrium/internal/platform/metrics"
	"equilibrium/internal/platform/postgres"
	redisclient "equilibrium/internal/platform/redis"
	"equilibrium/pkg/platform/tx"
)

// memberWriter and paymentWriter add the signup and billing writes
// enrollment needs on top of what the facade reads.
type memberWriter interface {
	service.MemberStore
	enrollment.MemberStore
}

type paymentWriter interface {
	service.PaymentStore
	enrollment.PaymentStore
}

type outboxStore interface {
	service.OutboxStore
	events.Outbox
}

// app holds the wired process dependencies.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	db      *sql.DB
	redis   *redisclient.Client
	runner  tx.Runner
	// relayRunner scopes outbox relay transactions. In memory mode it is a
	// separate runner so a slow publish never holds the placement lock.
	relayRunner tx.Runner
	members     memberWriter
	payments    paymentWriter
	outbox      outboxStore
	catalog     *tariff.Catalog
	service     *service.Service
	signup      *enrollment.Service
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	slog.SetDefault(log)
	return cfg, log, nil
}

func loadTariffs(cfg config.Config) (*tariff.Catalog, error) {
	catalog, err := tariff.LoadFile(cfg.Placement.TariffFile, tariff.Defaults{
		ReferralBonusPercent:  cfg.Placement.DefaultReferralBonusPercent,
		PlacementBonusPercent: cfg.Placement.DefaultPlacementBonusPercent,
	})
	if err != nil {
		return nil, fmt.Errorf("load tariffs: %w", err)
	}
	return catalog, nil
}

// reloadTariffs re-reads TARIFF_FILE into the live catalog. A file that fails
// to parse leaves the current catalog in place.
func (a *app) reloadTariffs(ctx context.Context) {
	next, err := loadTariffs(a.cfg)
	if err != nil {
		a.logger.ErrorContext(ctx, "tariff reload failed", "error", err)
		return
	}
	a.catalog.Replace(next)
	a.logger.InfoContext(ctx, "tariffs reloaded",
		"file", a.cfg.Placement.TariffFile,
		"active", len(a.catalog.ListActive(ctx)),
	)
}

// openDB connects to DATABASE_URL, or returns nil when it is unset.
func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	return postgres.Open(ctx, postgres.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	})
}

// newApp wires PostgreSQL stores when DATABASE_URL is set and in-memory
// stores otherwise. Redis enables the tree cache when REDIS_URL is set.
func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log, metrics: metrics.New()}

	catalog, err := loadTariffs(cfg)
	if err != nil {
		return nil, err
	}
	a.catalog = catalog

	a.db, err = openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var stores service.Stores
	if a.db != nil {
		members := memberstore.NewPostgresMembers(a.db)
		payments := memberstore.NewPostgresPayments(a.db)
		outbox := outboxstore.NewPostgres(a.db)
		a.runner = tx.NewSQLRunner(a.db, tx.WithTimeout(cfg.Placement.TxTimeout))
		a.relayRunner = a.runner
		a.members, a.payments, a.outbox = members, payments, outbox
		stores = service.Stores{
			Payments: payments,
			Members:  members,
			Tree:     treestore.NewPostgres(a.db),
			Bonuses:  ledgerstore.NewPostgres(a.db),
			Outbox:   outbox,
		}
		log.Info("using postgres stores")
	} else {
		members := memberstore.NewInMemoryMembers()
		payments := memberstore.NewInMemoryPayments()
		outbox := outboxstore.NewInMemory()
		a.runner = tx.NewMemoryRunner()
		a.relayRunner = tx.NewMemoryRunner()
		a.members, a.payments, a.outbox = members, payments, outbox
		stores = service.Stores{
			Payments: payments,
			Members:  members,
			Tree:     treestore.NewInMemory(),
			Bonuses:  ledgerstore.NewInMemory(),
			Outbox:   outbox,
		}
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(a.metrics),
		service.WithMaxChildren(cfg.Placement.MaxChildrenPerNode),
		service.WithMaxAttempts(cfg.Placement.MaxAttempts),
		service.WithAttemptTimeout(cfg.Placement.TxTimeout),
	}

	a.redis, err = redisclient.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.redis != nil {
		opts = append(opts, service.WithTreeCache(cache.New(a.redis, cfg.Redis.TreeCacheTTL)))
		log.Info("tree cache enabled", "ttl", cfg.Redis.TreeCacheTTL)
	}

	a.service = service.New(a.runner, stores, catalog, opts...)
	a.signup = enrollment.New(a.runner, a.members, a.payments, catalog, a.service, enrollment.WithLogger(log))
	return a, nil
}

func (a *app) newRelay(publisher events.Publisher) *events.Relay {
	return events.NewRelay(a.relayRunner, a.outbox, publisher,
		events.WithInterval(a.cfg.Kafka.PollInterval),
		events.WithBatchSize(a.cfg.Kafka.BatchSize),
		events.WithLogger(a.logger),
		events.WithMetrics(a.metrics),
	)
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
