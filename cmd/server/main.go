// Command activities-server starts the activities HTTP API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/and161185/activities/internal/config"
	"github.com/and161185/activities/internal/events"
	"github.com/and161185/activities/internal/migrate"
	"github.com/and161185/activities/internal/repository"
	"github.com/and161185/activities/internal/repository/postgres"
	redisrepo "github.com/and161185/activities/internal/repository/redis"
	"github.com/and161185/activities/internal/repository/sqlite"
	httpserver "github.com/and161185/activities/internal/server/http"
	"github.com/and161185/activities/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, opens the storage backend and serves HTTP until signalled.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("backend", cfg.Backend),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closer, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open storage", zap.Error(err))
	}
	defer func() { _ = closer.Close() }()

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = kp.Close() }()
		pub = kp
		logger.Info("publishing events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pipeline := service.New(repo,
		service.WithLogger(logger),
		service.WithPublisher(pub),
		service.WithRegisterer(reg),
	)

	srv := httpserver.New(pipeline, logger, httpserver.Config{
		Addr:            cfg.Addr,
		CORSOrigin:      cfg.CORSOrigin,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Gatherer:        reg,
	})
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openRepository migrates and opens the configured backend.
func openRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) (repository.Repository, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		if err := migrate.Up(ctx, cfg.DSN); err != nil {
			return nil, nil, err
		}
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewActivityRepo(db), closerFunc(func() error { db.Close(); return nil }), nil

	case config.BackendRedis:
		repo, client, err := redisrepo.Open(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return repo, client, nil

	default:
		repo, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite", zap.String("path", repo.Path()))
		return repo, repo, nil
	}
}
