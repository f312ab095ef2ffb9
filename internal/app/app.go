// Package app wires the configured collaborators for the server and CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-tracking/internal/config"
	"github.com/example/ride-tracking/internal/ingest"
	"github.com/example/ride-tracking/internal/route"
	"github.com/example/ride-tracking/internal/storage"
	"github.com/example/ride-tracking/internal/tracking"
	"github.com/example/ride-tracking/internal/view"
)

// MigrationFile is applied when MIGRATE=true and PG_DSN is set.
const MigrationFile = "migrations/001_create_tracking_lookups.sql"

type App struct {
	Service *view.Service
	History storage.LookupStore
	Checks  map[string]func(context.Context) error

	closers []func() error
}

// Directions builds the configured provider behind a cache. It returns nil
// when routing is disabled.
func Directions(cfg config.ServerConfig, rc *redis.Client) (route.Directions, error) {
	var next route.Directions
	switch cfg.DirectionsProvider {
	case config.ProviderGoogle:
		g, err := route.NewGoogleClient(cfg.MapsAPIKey, cfg.DirectionsTimeout)
		if err != nil {
			return nil, err
		}
		next = g
	case config.ProviderOSRM:
		next = route.NewOSRMClient(cfg.OSRMEndpoint, cfg.DirectionsTimeout)
	default:
		return nil, nil
	}
	var cache route.Cache = route.NewMemoryCache(cfg.RouteCacheTTL)
	if rc != nil {
		cache = route.NewRedisCache(rc, cfg.RouteCacheTTL)
	}
	return route.NewCachedDirections(next, cache), nil
}

// historyWiring picks the lookup recorders and the store /history reads.
// With a publisher configured the consumer owns the history table, so the
// server only publishes and reads db, which may be nil.
func historyWiring(db storage.LookupStore, pub view.Recorder, limit int) (storage.LookupStore, []view.Recorder) {
	switch {
	case pub != nil:
		return db, []view.Recorder{pub}
	case db != nil:
		return db, []view.Recorder{db}
	default:
		m := storage.NewMemoryStore(limit)
		return m, []view.Recorder{m}
	}
}

// New connects the optional backends named in cfg. Redis and Kafka clients
// connect lazily; Postgres is pinged up front.
func New(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (*App, error) {
	a := &App{Checks: map[string]func(context.Context) error{}}

	a.Checks["functions_base_url"] = func(context.Context) error {
		_, err := tracking.ResolveBaseURL("", cfg.FunctionsBaseURL)
		return err
	}

	var rc *redis.Client
	if cfg.RedisAddr != "" {
		rc = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		a.closers = append(a.closers, rc.Close)
		a.Checks["redis"] = func(ctx context.Context) error { return rc.Ping(ctx).Err() }
	}

	dirs, err := Directions(cfg, rc)
	if err != nil {
		a.Close()
		return nil, err
	}

	var db storage.LookupStore
	if cfg.PGDSN != "" {
		pg, err := storage.NewPostgresStore(ctx, cfg.PGDSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		if cfg.RunMigrations {
			if err := migrate(ctx, pg, logger); err != nil {
				a.Close()
				return nil, err
			}
		}
		db = pg
		a.Checks["postgres"] = pg.Ping
	}

	var pub view.Recorder
	if len(cfg.KafkaBrokers) > 0 {
		kp := ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		a.closers = append(a.closers, kp.Close)
		pub = kp
	}
	var recorders []view.Recorder
	a.History, recorders = historyWiring(db, pub, cfg.HistoryLimit)

	a.Service = &view.Service{
		Fetcher:    tracking.NewClient(cfg.FunctionsBaseURL, cfg.FetchTimeout),
		Directions: dirs,
		MapsKey:    cfg.MapsAPIKey,
		Recorders:  recorders,
		Logger:     logger,
	}
	logger.Info("tracking service configured",
		"directions", cfg.DirectionsProvider,
		"redis", rc != nil,
		"postgres", cfg.PGDSN != "",
		"kafka", len(cfg.KafkaBrokers) > 0,
	)
	return a, nil
}

func migrate(ctx context.Context, pg *storage.PostgresStore, logger *slog.Logger) error {
	b, err := os.ReadFile(MigrationFile)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if err := pg.Migrate(ctx, string(b)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	logger.Info("migration applied", "file", MigrationFile)
	return nil
}

// Close releases every backend in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
