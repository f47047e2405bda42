package main

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/Siddarth2230/shortcode/internal/config"
	"github.com/Siddarth2230/shortcode/internal/repository"
)

// openStore connects to the configured backend and prepares its schema or
// indexes. The returned close func is never nil.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := repository.OpenPostgres(ctx, repository.PostgresOptions{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		})
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPostgresRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("store ready", slog.String("driver", cfg.Store.Driver))
		return repo, func() { _ = db.Close() }, nil

	case config.DriverSQLite:
		db, err := repository.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewSQLiteRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("store ready", slog.String("driver", cfg.Store.Driver), slog.String("path", cfg.SQLite.Path))
		return repo, func() { _ = db.Close() }, nil

	case config.DriverMongo:
		client, err := repository.OpenMongo(ctx, repository.MongoOptions{
			URI:            cfg.Mongo.URI,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
			MinPoolSize:    cfg.Mongo.MinPoolSize,
			MaxPoolSize:    cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		repo := repository.NewMongoRepository(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		logger.Info("store ready",
			slog.String("driver", cfg.Store.Driver),
			slog.String("database", cfg.Mongo.Database),
			slog.String("collection", cfg.Mongo.Collection))
		return repo, closeFn, nil

	case config.DriverMemory:
		logger.Warn("using in-memory store, records are lost on exit")
		return repository.NewMemoryRepository(), func() {}, nil
	}
	return nil, nil, errors.Errorf("unknown store driver %q", cfg.Store.Driver)
}
