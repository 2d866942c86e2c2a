// Package config provides the PostgreSQL connection setup and the configuration loading
// for the attributes command.
//
// The pool factories carry tuned defaults for pgx.Pool, sql.DB and sqlx.DB;
// Load reads a config file and ATTRIBUTES_* environment variables with viper.
package config
