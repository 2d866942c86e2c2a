// Package postgresengine provides a PostgreSQL implementation of attribute.Controller.
//
// The accumulated attribute.Criteria are translated into SQL with goqu (postgres dialect).
// Multiple database adapters are supported (pgx, sql.DB, sqlx), queries can be sent to a read replica,
// and logging, metrics and tracing are pluggable via functional options.
//
// Expected schema (table names are configurable):
//
//	CREATE TABLE attributes (
//		id     TEXT PRIMARY KEY,
//		code   TEXT NOT NULL,
//		domain TEXT NOT NULL,
//		type   TEXT NOT NULL,
//		label  TEXT NOT NULL,
//		pos    INTEGER NOT NULL DEFAULT 0,
//		status SMALLINT NOT NULL DEFAULT 1,
//		ctime  TIMESTAMP WITH TIME ZONE NOT NULL,
//		mtime  TIMESTAMP WITH TIME ZONE NOT NULL
//	);
//
//	CREATE TABLE attribute_lists (
//		parentid TEXT NOT NULL REFERENCES attributes (id),
//		domain   TEXT NOT NULL,
//		type     TEXT NOT NULL,
//		refid    TEXT NOT NULL,
//		pos      INTEGER NOT NULL DEFAULT 0
//	);
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	controller, _ := postgresengine.NewControllerFromPGXPool(db)
//
//	// With custom tables and operational logging
//	controller, _ := postgresengine.NewControllerFromPGXPool(
//		db,
//		postgresengine.WithTableName("mshop_attribute"),
//		postgresengine.WithListTableName("mshop_attribute_list"),
//		postgresengine.WithLogger(slog.Default()),
//	)
//
//	items, total, _ := controller.Domain("product").Type("color").Sort("position").Search(ctx, "text")
//	sqlQuery, _ := controller.Call(ctx, postgresengine.ExtensionSelectSQL)
package postgresengine
