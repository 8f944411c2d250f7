// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/visitor.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"visitors/internal/event"
	"visitors/internal/platform/config"
	"visitors/internal/platform/httpserver"
	"visitors/internal/platform/logger"
	"visitors/internal/platform/metrics"
	platformredis "visitors/internal/platform/redis"
	httptransport "visitors/internal/transport/http"
	"visitors/internal/visitor"
	visitorhandler "visitors/internal/visitor/handler"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	store, closeStore, err := newStore(cfg, log)
	if err != nil {
		log.Error("store init failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	cache, closeCache, err := newCache(cfg, log)
	if err != nil {
		log.Error("cache init failed", "error", err)
		os.Exit(1)
	}
	defer closeCache()

	var publisher visitor.EventPublisher = event.NopPublisher{Logger: log}
	var consumer *event.Consumer
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := event.NewKafkaPublisher(cfg.Kafka.Brokers, log, m)
		if err != nil {
			log.Error("kafka publisher init failed", "error", err)
			os.Exit(1)
		}
		defer kp.Close()
		publisher = kp

		consumer, err = event.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Group, log)
		if err != nil {
			log.Error("kafka consumer init failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("no kafka brokers configured; visitor events disabled")
	}

	service := visitor.NewService(store, cache, publisher, cfg.Kafka.Topic, log, m)
	defer service.Close()

	router := httptransport.NewRouter(visitorhandler.New(service, log), log)
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting visitor service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if consumer != nil {
		g.Go(func() error {
			return consumer.Run(ctx)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if consumer != nil {
			consumer.Close()
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newStore(cfg config.Config, log *slog.Logger) (visitor.Store, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Warn("no postgres DSN configured; using in-memory store")
		return visitor.NewMemoryStore(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}
	store := visitor.NewPostgres(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("using postgres store")
	return store, func() { db.Close() }, nil
}

func newCache(cfg config.Config, log *slog.Logger) (visitor.Cache, func(), error) {
	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Warn("no redis URL configured; caching disabled")
		return visitor.NopCache{}, func() {}, nil
	}
	log.Info("using redis cache")
	return visitor.NewRedisCache(client.Client, cfg.CacheTTL), func() { client.Close() }, nil
}
