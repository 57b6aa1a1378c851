package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"equilibrium/internal/placement/events"
	"equilibrium/internal/placement/handler"
	"equilibrium/internal/platform/httpserver"
	"equilibrium/internal/platform/kafka"
	"equilibrium/internal/platform/postgres"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the placement API and relay outbox events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	return cmd
}

func runServe(parent context.Context, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if migrate && a.db != nil {
		if err := postgres.Migrate(ctx, a.db); err != nil {
			return err
		}
		log.Info("schema migrated")
	}

	checks := map[string]handler.HealthCheck{}
	if a.db != nil {
		checks["database"] = a.db.PingContext
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Health
	}

	var publisher events.Publisher = events.NewLogPublisher(log)
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		topicCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := producer.EnsureTopic(topicCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("ensure kafka topic: %w", err)
		}
		checks["kafka"] = producer.Ping
		publisher = producer
		log.Info("publishing events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	relay := a.newRelay(publisher)

	router := handler.NewRouter(handler.New(a.service, log), log, a.metrics.Registry, checks,
		handler.NewEnrollment(a.signup, log))
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Server.Addr, "max_children", a.service.MaxChildren())
		return httpserver.Run(gctx, srv, shutdownTimeout)
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		watchReload(gctx, a.reloadTariffs)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// watchReload calls reload on every SIGHUP until ctx is done.
func watchReload(ctx context.Context, reload func(context.Context)) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			reload(ctx)
		}
	}
}
