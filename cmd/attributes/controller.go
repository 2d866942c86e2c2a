package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
	"github.com/AntonStoeckl/attribute-query-go/attribute/decorators/caching"
	"github.com/AntonStoeckl/attribute-query-go/attribute/decorators/observable"
	"github.com/AntonStoeckl/attribute-query-go/attribute/decorators/visibility"
	"github.com/AntonStoeckl/attribute-query-go/attribute/oteladapters"
	"github.com/AntonStoeckl/attribute-query-go/attribute/postgresengine"
	"github.com/AntonStoeckl/attribute-query-go/config"
)

const instrumentationName = "github.com/AntonStoeckl/attribute-query-go/cmd/attributes"

// buildController creates the postgres controller for the configured adapter and stacks the decorators on it:
// visibility first, then the cache (if enabled), observability outermost.
// The returned function closes the database connections.
func buildController(ctx context.Context, cfg config.Config, logger *slog.Logger) (attribute.Controller, func(), error) {
	engine, closeDB, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	controller, err := decorate(engine, cfg, logger)
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	return controller, closeDB, nil
}

func buildEngine(ctx context.Context, cfg config.Config, logger *slog.Logger) (*postgresengine.Controller, func(), error) {
	options := []postgresengine.Option{
		postgresengine.WithTableName(cfg.Database.Table),
		postgresengine.WithListTableName(cfg.Database.ListTable),
		postgresengine.WithLogger(logger),
	}

	switch cfg.Database.Adapter {
	case config.AdapterSQLDB:
		db, err := config.PostgresSQLDBConfig(cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}

		controller, err := postgresengine.NewControllerFromSQLDB(db, options...)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		return controller, func() { _ = db.Close() }, nil

	case config.AdapterSQLXDB:
		db, err := config.PostgresSQLXConfig(cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}

		controller, err := postgresengine.NewControllerFromSQLX(db, options...)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		return controller, func() { _ = db.Close() }, nil

	default:
		poolConfig, err := config.PostgresPGXPoolConfig(cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to the database failed: %w", err)
		}

		if cfg.Database.ReplicaDSN == "" {
			controller, err := postgresengine.NewControllerFromPGXPool(pool, options...)
			if err != nil {
				pool.Close()
				return nil, nil, err
			}

			return controller, pool.Close, nil
		}

		replicaConfig, err := config.PostgresPGXPoolConfig(cfg.Database.ReplicaDSN)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		replica, err := pgxpool.NewWithConfig(ctx, replicaConfig)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connecting to the replica failed: %w", err)
		}

		closeAll := func() {
			replica.Close()
			pool.Close()
		}

		controller, err := postgresengine.NewControllerFromPGXPoolWithReplica(pool, replica, options...)
		if err != nil {
			closeAll()
			return nil, nil, err
		}

		return controller, closeAll, nil
	}
}

func decorate(engine attribute.Controller, cfg config.Config, logger *slog.Logger) (attribute.Controller, error) {
	visible, err := visibility.NewWrapper(engine, visibility.WithMinStatus(cfg.Visibility.MinStatus))
	if err != nil {
		return nil, err
	}

	var controller attribute.Controller = visible

	metrics := oteladapters.NewMetricsCollector(otel.Meter(instrumentationName))

	if cfg.Cache.Size > 0 {
		cache, err := caching.NewCache(cfg.Cache.Size)
		if err != nil {
			return nil, err
		}

		controller, err = caching.NewWrapper(controller, cache, caching.WithLogger(logger), caching.WithMetrics(metrics))
		if err != nil {
			return nil, err
		}
	}

	observed, err := observable.NewWrapper(controller,
		observable.WithContextualLogging(oteladapters.NewSlogBridgeLoggerWithHandler(logger.Handler())),
		observable.WithMetrics(metrics),
		observable.WithTracing(oteladapters.NewTracingCollector(otel.Tracer(instrumentationName))),
	)
	if err != nil {
		return nil, err
	}

	return observed, nil
}
