// Package adapters provides the database adapters of the PostgreSQL attribute controller.
//
// pgxpool.Pool, sql.DB and sqlx.DB are supported behind the common DBAdapter interface,
// so the controller builds and runs the same SQL whichever connection type it got.
package adapters
