package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Supported database adapters.
const (
	AdapterPGXPool = "pgx.pool"
	AdapterSQLDB   = "sql.db"
	AdapterSQLXDB  = "sqlx.db"
)

const (
	envPrefix = "ATTRIBUTES"

	keyDatabaseDSN        = "database.dsn"
	keyDatabaseReplicaDSN = "database.replica_dsn"
	keyDatabaseAdapter    = "database.adapter"
	keyDatabaseTable      = "database.table"
	keyDatabaseListTable  = "database.list_table"
	keyCacheSize          = "cache.size"
	keyVisibilityMin      = "visibility.min_status"
	keyLogLevel           = "log.level"
)

var (
	ErrReadingConfigFailed = errors.New("reading config failed")
	ErrInvalidConfig       = errors.New("invalid config")
)

// Config is the configuration of the attributes command.
type Config struct {
	Database   DatabaseConfig
	Cache      CacheConfig
	Visibility VisibilityConfig
	Log        LogConfig
}

// DatabaseConfig selects the database, the adapter and the table names.
type DatabaseConfig struct {
	DSN        string
	ReplicaDSN string
	Adapter    string
	Table      string
	ListTable  string
}

// CacheConfig sizes the result cache; 0 disables caching.
type CacheConfig struct {
	Size int
}

// VisibilityConfig sets the lowest status of attributes that are visible.
type VisibilityConfig struct {
	MinStatus int
}

// LogConfig sets the log level.
type LogConfig struct {
	Level slog.Level
}

// DefaultConfig returns the configuration used for keys that are neither in the file nor in the environment.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			DSN:       TestDSN,
			Adapter:   AdapterPGXPool,
			Table:     "attributes",
			ListTable: "attribute_lists",
		},
		Cache:      CacheConfig{Size: 1000},
		Visibility: VisibilityConfig{MinStatus: 1},
		Log:        LogConfig{Level: slog.LevelInfo},
	}
}

// Load reads the configuration from the given file, if any, and from the environment.
//
// Environment variables use the prefix ATTRIBUTES and underscores instead of dots,
// e.g. ATTRIBUTES_DATABASE_DSN overrides database.dsn.
func Load(path string) (Config, error) {
	defaults := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyDatabaseDSN, defaults.Database.DSN)
	v.SetDefault(keyDatabaseReplicaDSN, defaults.Database.ReplicaDSN)
	v.SetDefault(keyDatabaseAdapter, defaults.Database.Adapter)
	v.SetDefault(keyDatabaseTable, defaults.Database.Table)
	v.SetDefault(keyDatabaseListTable, defaults.Database.ListTable)
	v.SetDefault(keyCacheSize, defaults.Cache.Size)
	v.SetDefault(keyVisibilityMin, defaults.Visibility.MinStatus)
	v.SetDefault(keyLogLevel, defaults.Log.Level.String())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Join(ErrReadingConfigFailed, err)
		}
	}

	cfg := Config{
		Database: DatabaseConfig{
			DSN:        v.GetString(keyDatabaseDSN),
			ReplicaDSN: v.GetString(keyDatabaseReplicaDSN),
			Adapter:    v.GetString(keyDatabaseAdapter),
			Table:      v.GetString(keyDatabaseTable),
			ListTable:  v.GetString(keyDatabaseListTable),
		},
		Cache:      CacheConfig{Size: v.GetInt(keyCacheSize)},
		Visibility: VisibilityConfig{MinStatus: v.GetInt(keyVisibilityMin)},
	}

	if err := cfg.Log.Level.UnmarshalText([]byte(v.GetString(keyLogLevel))); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the values that cannot be used as they are.
func (c Config) Validate() error {
	var errs []error

	if c.Database.DSN == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", keyDatabaseDSN))
	}

	switch c.Database.Adapter {
	case AdapterPGXPool, AdapterSQLDB, AdapterSQLXDB:
	default:
		errs = append(errs, fmt.Errorf("%s: unsupported adapter %q", keyDatabaseAdapter, c.Database.Adapter))
	}

	if c.Database.ReplicaDSN != "" && c.Database.Adapter != AdapterPGXPool {
		errs = append(errs, fmt.Errorf("%s is only supported with adapter %q", keyDatabaseReplicaDSN, AdapterPGXPool))
	}

	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", keyCacheSize))
	}

	if len(errs) == 0 {
		return nil
	}

	return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
}
