package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
	"github.com/AntonStoeckl/attribute-query-go/attribute/postgresengine/internal/adapters"
)

const (
	// ExtensionSelectSQL returns the SQL statement Search would run for the accumulated criteria.
	ExtensionSelectSQL = "selectSQL"

	defaultTableName     = "attributes"
	defaultListTableName = "attribute_lists"

	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgInvalidQuery           = "invalid attribute query"
	logMsgAttributeNotFound      = "attribute not found"
	logMsgSearchCompleted        = "search completed"
	logMsgGetCompleted           = "get completed"
	logMsgFindCompleted          = "find completed"
	logMsgSQLExecuted            = "executed sql for: "
	logMsgOperation              = "attribute operation: "
	logAttrError                 = "error"
	logAttrQuery                 = "query"
	logAttrItemCount             = "item_count"
	logAttrTotal                 = "total"
	logAttrDurationMS            = "duration_ms"
	logAttrID                    = "id"
	logAttrCode                  = "code"
	logAttrType                  = "type"
	logActionSearch              = "search"
	logActionCount               = "count"
	logActionRefs                = "refs"
)

// Controller implements attribute.Controller on top of PostgreSQL.
//
// Filter methods fold into the accumulated attribute.Criteria, the terminal operations translate
// them into SQL. A Controller is meant for one request at a time; Clone it for independent queries,
// the clones share the database connection.
type Controller struct {
	db               adapters.DBAdapter
	tableName        string
	listTableName    string
	criteria         attribute.Criteria
	extensions       attribute.Extensions
	logger           attribute.Logger
	contextualLogger attribute.ContextualLogger
	metricsCollector attribute.MetricsCollector
	tracingCollector attribute.TracingCollector
}

// NewControllerFromPGXPool creates a new Controller using a pgx Pool with optional configuration.
func NewControllerFromPGXPool(db *pgxpool.Pool, options ...Option) (*Controller, error) {
	if db == nil {
		return nil, attribute.ErrNilDatabaseConnection
	}

	return newController(adapters.NewPGXAdapter(db), options...)
}

// NewControllerFromPGXPoolWithReplica creates a new Controller that runs its queries on the replica pool.
func NewControllerFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*Controller, error) {
	if db == nil || replica == nil {
		return nil, attribute.ErrNilDatabaseConnection
	}

	return newController(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewControllerFromSQLDB creates a new Controller using a sql.DB with optional configuration.
func NewControllerFromSQLDB(db *sql.DB, options ...Option) (*Controller, error) {
	if db == nil {
		return nil, attribute.ErrNilDatabaseConnection
	}

	return newController(adapters.NewSQLAdapter(db), options...)
}

// NewControllerFromSQLX creates a new Controller using a sqlx.DB with optional configuration.
func NewControllerFromSQLX(db *sqlx.DB, options ...Option) (*Controller, error) {
	if db == nil {
		return nil, attribute.ErrNilDatabaseConnection
	}

	return newController(adapters.NewSQLXAdapter(db), options...)
}

func newController(db adapters.DBAdapter, options ...Option) (*Controller, error) {
	c := &Controller{
		db:            db,
		tableName:     defaultTableName,
		listTableName: defaultListTableName,
		extensions: attribute.Extensions{
			ExtensionSelectSQL: selectSQL,
		},
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// IDs adds attribute IDs for filtering.
func (c *Controller) IDs(ids ...string) attribute.Controller {
	c.criteria = c.criteria.WithIDs(ids...)
	return c
}

// Compare adds a generic condition for filtering attributes.
func (c *Controller) Compare(operator attribute.Operator, key attribute.KeyString, values ...any) attribute.Controller {
	c.criteria = c.criteria.WithComparison(operator, key, values...)
	return c
}

// Domain sets the domain of the attributes for filtering.
func (c *Controller) Domain(domain string) attribute.Controller {
	c.criteria = c.criteria.WithDomain(domain)
	return c
}

// Parse parses the given condition tree and adds it to the list of conditions.
func (c *Controller) Parse(conditions attribute.Conditions) attribute.Controller {
	c.criteria = c.criteria.WithConditions(conditions)
	return c
}

// Slice sets the start value and the number of returned attributes.
func (c *Controller) Slice(start, limit int) attribute.Controller {
	c.criteria = c.criteria.WithSlice(start, limit)
	return c
}

// Sort sets the sorting of the result list.
func (c *Controller) Sort(key string) attribute.Controller {
	c.criteria = c.criteria.WithSort(key)
	return c
}

// Type adds attribute types for filtering.
func (c *Controller) Type(codes ...string) attribute.Controller {
	c.criteria = c.criteria.WithTypes(codes...)
	return c
}

// Criteria returns the accumulated query state.
func (c *Controller) Criteria() attribute.Criteria {
	return c.criteria
}

// Clone returns a Controller with a copy of the accumulated criteria sharing the database connection.
func (c *Controller) Clone() attribute.Controller {
	clone := *c
	return &clone
}

// Call runs a registered extension operation, see ExtensionSelectSQL and WithExtension.
func (c *Controller) Call(ctx context.Context, name string, args ...any) (any, error) {
	return c.extensions.Call(ctx, c, name, args...)
}

// Search returns the attributes matching the accumulated criteria, including the list references
// of the given domains, and the total number of matching attributes regardless of the slice.
func (c *Controller) Search(ctx context.Context, domains ...string) (attribute.Items, attribute.TotalCountUint, error) {
	tracer, ctx := c.startTracing(ctx, operationSearch)
	metrics := c.startMetrics(ctx, operationSearch)
	start := time.Now()

	fail := func(errorType string, err error) (attribute.Items, attribute.TotalCountUint, error) {
		tracer.finishError(errorType, time.Since(start))
		metrics.recordError(errorType, time.Since(start))

		return nil, 0, err
	}

	if err := c.criteria.Err(); err != nil {
		c.logError(ctx, logMsgInvalidQuery, err)
		return fail(errorTypeInvalidQuery, err)
	}

	countQuery, err := c.buildCountQuery(c.criteria)
	if err != nil {
		c.logError(ctx, logMsgBuildSelectQueryFailed, err)
		return fail(errorTypeBuildQuery, err)
	}

	total, errorType, err := c.queryTotal(ctx, countQuery)
	if err != nil {
		return fail(errorType, err)
	}

	items := make(attribute.Items, 0)

	if c.criteria.Limit() > 0 && uint(c.criteria.Start()) < total {
		selectQuery, buildErr := c.buildSelectQuery(c.criteria)
		if buildErr != nil {
			c.logError(ctx, logMsgBuildSelectQueryFailed, buildErr)
			return fail(errorTypeBuildQuery, buildErr)
		}

		items, errorType, err = c.queryItems(ctx, selectQuery, logActionSearch)
		if err != nil {
			return fail(errorType, err)
		}

		items, errorType, err = c.loadRefs(ctx, items, domains)
		if err != nil {
			return fail(errorType, err)
		}
	}

	duration := time.Since(start)
	tracer.finishSuccess(len(items), duration)
	metrics.recordSuccess(len(items), duration)
	c.logOperation(ctx, logMsgSearchCompleted,
		logAttrItemCount, len(items),
		logAttrTotal, total,
		logAttrDurationMS, toMilliseconds(duration))

	return items, total, nil
}

// Get returns the attribute with the given ID including the list references of the given domains.
// The accumulated filters are not applied.
func (c *Controller) Get(ctx context.Context, id string, domains ...string) (attribute.Item, error) {
	selectQuery, err := c.buildGetQuery(id)

	item, err := c.fetchOne(ctx, operationGet, selectQuery, err, domains)
	if errors.Is(err, attribute.ErrNotFound) {
		return attribute.Item{}, fmt.Errorf("%w: id %q", err, id)
	}

	if err == nil {
		c.logOperation(ctx, logMsgGetCompleted, logAttrID, id)
	}

	return item, err
}

// Find returns the attribute with the given code and type including the list references of the given domains.
// Only the domain of the accumulated criteria is applied.
func (c *Controller) Find(ctx context.Context, code string, typ string, domains ...string) (attribute.Item, error) {
	selectQuery, err := c.buildFindQuery(code, typ, c.criteria.Domain())

	item, err := c.fetchOne(ctx, operationFind, selectQuery, err, domains)
	if errors.Is(err, attribute.ErrNotFound) {
		return attribute.Item{}, fmt.Errorf("%w: code %q, type %q", err, code, typ)
	}

	if err == nil {
		c.logOperation(ctx, logMsgFindCompleted, logAttrCode, code, logAttrType, typ)
	}

	return item, err
}

// fetchOne runs a single-item select built by Get or Find.
func (c *Controller) fetchOne(
	ctx context.Context,
	operation string,
	selectQuery string,
	buildErr error,
	domains []string,
) (attribute.Item, error) {

	tracer, ctx := c.startTracing(ctx, operation)
	metrics := c.startMetrics(ctx, operation)
	start := time.Now()

	fail := func(errorType string, err error) (attribute.Item, error) {
		tracer.finishError(errorType, time.Since(start))
		metrics.recordError(errorType, time.Since(start))

		return attribute.Item{}, err
	}

	if buildErr != nil {
		c.logError(ctx, logMsgBuildSelectQueryFailed, buildErr)
		return fail(errorTypeBuildQuery, buildErr)
	}

	items, errorType, err := c.queryItems(ctx, selectQuery, operation)
	if err != nil {
		return fail(errorType, err)
	}

	if len(items) == 0 {
		c.logWarn(ctx, logMsgAttributeNotFound, logAttrQuery, selectQuery)
		return fail(errorTypeNotFound, attribute.ErrNotFound)
	}

	items, errorType, err = c.loadRefs(ctx, items[:1], domains)
	if err != nil {
		return fail(errorType, err)
	}

	duration := time.Since(start)
	tracer.finishSuccess(1, duration)
	metrics.recordSuccess(1, duration)

	return items[0], nil
}

// queryTotal executes the count query.
func (c *Controller) queryTotal(ctx context.Context, sqlQuery string) (attribute.TotalCountUint, string, error) {
	rows, err := c.executeQuery(ctx, sqlQuery, logActionCount)
	if err != nil {
		return 0, errorTypeDatabaseQuery, err
	}
	defer c.closeRows(ctx, rows)

	var total int64
	for rows.Next() {
		if scanErr := rows.Scan(&total); scanErr != nil {
			c.logError(ctx, logMsgScanRowFailed, scanErr)
			return 0, errorTypeRowScan, errors.Join(attribute.ErrScanningDBRowFailed, scanErr)
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		c.logError(ctx, logMsgDBQueryFailed, rowsErr, logAttrQuery, sqlQuery)
		return 0, errorTypeDatabaseQuery, errors.Join(attribute.ErrQueryingAttributesFailed, rowsErr)
	}

	return attribute.TotalCountUint(total), "", nil
}

// queryItems executes an item select and scans the rows.
func (c *Controller) queryItems(ctx context.Context, sqlQuery string, action string) (attribute.Items, string, error) {
	rows, err := c.executeQuery(ctx, sqlQuery, action)
	if err != nil {
		return nil, errorTypeDatabaseQuery, err
	}
	defer c.closeRows(ctx, rows)

	items := make(attribute.Items, 0)

	for rows.Next() {
		var item attribute.Item

		scanErr := rows.Scan(
			&item.ID,
			&item.Code,
			&item.Domain,
			&item.Type,
			&item.Label,
			&item.Position,
			&item.Status,
			&item.CreatedAt,
			&item.ModifiedAt,
		)
		if scanErr != nil {
			c.logError(ctx, logMsgScanRowFailed, scanErr)
			return nil, errorTypeRowScan, errors.Join(attribute.ErrScanningDBRowFailed, scanErr)
		}

		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		c.logError(ctx, logMsgDBQueryFailed, rowsErr, logAttrQuery, sqlQuery)
		return nil, errorTypeDatabaseQuery, errors.Join(attribute.ErrQueryingAttributesFailed, rowsErr)
	}

	return items, "", nil
}

// loadRefs attaches the list references of the given domains to the items.
func (c *Controller) loadRefs(ctx context.Context, items attribute.Items, domains []string) (attribute.Items, string, error) {
	if len(items) == 0 || len(domains) == 0 {
		return items, "", nil
	}

	positions := make(map[string]int, len(items))
	parentIDs := make([]string, 0, len(items))
	for i, item := range items {
		positions[item.ID] = i
		parentIDs = append(parentIDs, item.ID)
	}

	sqlQuery, err := c.buildRefsQuery(parentIDs, domains)
	if err != nil {
		c.logError(ctx, logMsgBuildSelectQueryFailed, err)
		return nil, errorTypeBuildQuery, err
	}

	rows, err := c.executeQuery(ctx, sqlQuery, logActionRefs)
	if err != nil {
		return nil, errorTypeDatabaseQuery, err
	}
	defer c.closeRows(ctx, rows)

	for rows.Next() {
		var parentID string
		var ref attribute.ListRef

		if scanErr := rows.Scan(&parentID, &ref.Domain, &ref.Type, &ref.RefID, &ref.Position); scanErr != nil {
			c.logError(ctx, logMsgScanRowFailed, scanErr)
			return nil, errorTypeRowScan, errors.Join(attribute.ErrScanningDBRowFailed, scanErr)
		}

		i, ok := positions[parentID]
		if !ok {
			continue
		}

		if items[i].Refs == nil {
			items[i].Refs = make(map[string][]attribute.ListRef)
		}
		items[i].Refs[ref.Domain] = append(items[i].Refs[ref.Domain], ref)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		c.logError(ctx, logMsgDBQueryFailed, rowsErr, logAttrQuery, sqlQuery)
		return nil, errorTypeDatabaseQuery, errors.Join(attribute.ErrQueryingAttributesFailed, rowsErr)
	}

	return items, "", nil
}

// executeQuery executes the SQL query and logs it with timing information.
func (c *Controller) executeQuery(ctx context.Context, sqlQuery string, action string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := c.db.Query(ctx, sqlQuery)
	c.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if queryErr != nil {
		c.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return nil, errors.Join(attribute.ErrQueryingAttributesFailed, queryErr)
	}

	return rows, nil
}

// closeRows safely closes database rows and logs any errors.
func (c *Controller) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		c.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

func selectSQL(_ context.Context, controller attribute.Controller, _ ...any) (any, error) {
	c, ok := controller.(*Controller)
	if !ok {
		return nil, fmt.Errorf("%w: %s needs a postgres controller, got %T", attribute.ErrUnknownOperation, ExtensionSelectSQL, controller)
	}

	if err := c.criteria.Err(); err != nil {
		return nil, err
	}

	sqlQuery, err := c.buildSelectQuery(c.criteria)
	if err != nil {
		return nil, err
	}

	return sqlQuery, nil
}

// Ensure Controller implements attribute.Controller and attribute.Extender.
var _ attribute.Controller = (*Controller)(nil)
var _ attribute.Extender = (*Controller)(nil)
