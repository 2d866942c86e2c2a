// Package postgreswrapper creates postgres attribute controllers for tests that need a real database.
//
// The adapter is chosen by the ADAPTER_TYPE environment variable (pgx.pool, sql.db or sqlx.db, default pgx.pool),
// the database by ATTRIBUTES_TEST_DSN (default config.TestDSN).
// Tests are skipped when the database is not reachable.
package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
	"github.com/AntonStoeckl/attribute-query-go/attribute/postgresengine"
	"github.com/AntonStoeckl/attribute-query-go/config"
)

const (
	TableName     = "attributes_test"
	ListTableName = "attribute_lists_test"

	pingTimeout = 2 * time.Second
)

// Wrapper abstracts over the database adapters.
type Wrapper interface {
	GetController() *postgresengine.Controller
	Exec(ctx context.Context, query string) error
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing.
type PGXPoolWrapper struct {
	pool       *pgxpool.Pool
	controller *postgresengine.Controller
}

func (w *PGXPoolWrapper) GetController() *postgresengine.Controller {
	return w.controller
}

func (w *PGXPoolWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.pool.Exec(ctx, query)
	return err
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing.
type SQLDBWrapper struct {
	db         *sql.DB
	controller *postgresengine.Controller
}

func (w *SQLDBWrapper) GetController() *postgresengine.Controller {
	return w.controller
}

func (w *SQLDBWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing.
type SQLXWrapper struct {
	db         *sqlx.DB
	controller *postgresengine.Controller
}

func (w *SQLXWrapper) GetController() *postgresengine.Controller {
	return w.controller
}

func (w *SQLXWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the wrapper for the adapter from the environment and prepares the test tables.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	dsn := os.Getenv("ATTRIBUTES_TEST_DSN")
	if dsn == "" {
		dsn = config.TestDSN
	}

	options = append([]postgresengine.Option{
		postgresengine.WithTableName(TableName),
		postgresengine.WithListTableName(ListTableName),
	}, options...)

	wrapper := createWrapper(t, dsn, options)
	t.Cleanup(wrapper.Close)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := wrapper.Exec(ctx, "SELECT 1"); err != nil {
		t.Skipf("postgres is not reachable: %v", err)
	}

	for _, statement := range createTablesSQL() {
		require.NoError(t, wrapper.Exec(context.Background(), statement), "error creating the test tables")
	}
	CleanUp(t, wrapper)

	return wrapper
}

func createWrapper(t testing.TB, dsn string, options []postgresengine.Option) Wrapper {
	adapterFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	switch adapterFromEnv {
	case config.AdapterPGXPool, "":
		poolConfig, err := config.PostgresPGXPoolConfig(dsn)
		require.NoError(t, err, "error creating the DB pool config in test setup")

		pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
		require.NoError(t, err, "error connecting to DB pool in test setup")

		controller, err := postgresengine.NewControllerFromPGXPool(pool, options...)
		require.NoError(t, err, "error creating the controller in test setup")

		return &PGXPoolWrapper{pool: pool, controller: controller}

	case config.AdapterSQLDB:
		db, err := config.PostgresSQLDBConfig(dsn)
		require.NoError(t, err, "error opening the DB in test setup")

		controller, err := postgresengine.NewControllerFromSQLDB(db, options...)
		require.NoError(t, err, "error creating the controller in test setup")

		return &SQLDBWrapper{db: db, controller: controller}

	case config.AdapterSQLXDB:
		db, err := config.PostgresSQLXConfig(dsn)
		require.NoError(t, err, "error opening the DB in test setup")

		controller, err := postgresengine.NewControllerFromSQLX(db, options...)
		require.NoError(t, err, "error creating the controller in test setup")

		return &SQLXWrapper{db: db, controller: controller}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterFromEnv))
	}
}

// CleanUp empties the test tables.
func CleanUp(t testing.TB, wrapper Wrapper) {
	t.Helper()

	err := wrapper.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s, %s", ListTableName, TableName))
	require.NoError(t, err, "error cleaning up the test tables")
}

// GivenItemsWereStored inserts the items and their list references into the test tables.
func GivenItemsWereStored(t testing.TB, wrapper Wrapper, items attribute.Items) {
	t.Helper()

	dialect := goqu.Dialect("postgres")
	rows := make([]any, 0, len(items))
	var listRows []any

	for _, item := range items {
		rows = append(rows, goqu.Record{
			"id":     item.ID,
			"code":   item.Code,
			"domain": item.Domain,
			"type":   item.Type,
			"label":  item.Label,
			"pos":    item.Position,
			"status": item.Status,
			"ctime":  item.CreatedAt,
			"mtime":  item.ModifiedAt,
		})

		for _, refs := range item.Refs {
			for _, ref := range refs {
				listRows = append(listRows, goqu.Record{
					"parentid": item.ID,
					"domain":   ref.Domain,
					"type":     ref.Type,
					"refid":    ref.RefID,
					"pos":      ref.Position,
				})
			}
		}
	}

	insertItems, _, err := dialect.Insert(TableName).Rows(rows...).ToSQL()
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, wrapper.Exec(context.Background(), insertItems), "error in arranging test data")

	if len(listRows) == 0 {
		return
	}

	insertRefs, _, err := dialect.Insert(ListTableName).Rows(listRows...).ToSQL()
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, wrapper.Exec(context.Background(), insertRefs), "error in arranging test data")
}

func createTablesSQL() []string {
	return []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id     TEXT PRIMARY KEY,
	code   TEXT NOT NULL,
	domain TEXT NOT NULL,
	type   TEXT NOT NULL,
	label  TEXT NOT NULL,
	pos    INTEGER NOT NULL DEFAULT 0,
	status SMALLINT NOT NULL DEFAULT 1,
	ctime  TIMESTAMP WITH TIME ZONE NOT NULL,
	mtime  TIMESTAMP WITH TIME ZONE NOT NULL
)`, TableName),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[2]s (
	parentid TEXT NOT NULL REFERENCES %[1]s (id),
	domain   TEXT NOT NULL,
	type     TEXT NOT NULL,
	refid    TEXT NOT NULL,
	pos      INTEGER NOT NULL DEFAULT 0
)`, TableName, ListTableName),
	}
}
