package postgresengine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
)

const (
	dialectPostgres = "postgres"

	colID       = "id"
	colCode     = "code"
	colDomain   = "domain"
	colType     = "type"
	colLabel    = "label"
	colPosition = "pos"
	colStatus   = "status"
	colCtime    = "ctime"
	colMtime    = "mtime"
	colParentID = "parentid"
	colRefID    = "refid"

	aliasTotal = "total"

	literalTrue  = "TRUE"
	literalFalse = "FALSE"
	literalNot   = "NOT ?"
)

type sqlQueryString = string

var errUnsupportedCondition = errors.New("unsupported condition")

// searchKeyColumns maps the search keys to the columns of the attribute table.
var searchKeyColumns = map[attribute.KeyString]string{
	attribute.KeyID:       colID,
	attribute.KeyCode:     colCode,
	attribute.KeyDomain:   colDomain,
	attribute.KeyType:     colType,
	attribute.KeyLabel:    colLabel,
	attribute.KeyPosition: colPosition,
	attribute.KeyStatus:   colStatus,
	attribute.KeyCtime:    colCtime,
	attribute.KeyMtime:    colMtime,
}

// itemColumns are selected in the order queryItems scans them.
func itemColumns() []any {
	return []any{colID, colCode, colDomain, colType, colLabel, colPosition, colStatus, colCtime, colMtime}
}

// buildSelectQuery builds the filtered, sorted and sliced item select for Search.
func (c *Controller) buildSelectQuery(criteria attribute.Criteria) (sqlQueryString, error) {
	where, err := whereExpression(criteria.Where())
	if err != nil {
		return "", errors.Join(attribute.ErrBuildingQueryFailed, err)
	}

	selectStmt := goqu.Dialect(dialectPostgres).
		From(c.tableName).
		Select(itemColumns()...)

	if where != nil {
		selectStmt = selectStmt.Where(where)
	}

	selectStmt = selectStmt.
		Order(orderExpressions(criteria.Sort())...).
		Offset(uint(criteria.Start())).
		Limit(uint(criteria.Limit()))

	return toSQL(selectStmt)
}

// buildCountQuery builds the select counting all items matching the criteria, ignoring the slice.
func (c *Controller) buildCountQuery(criteria attribute.Criteria) (sqlQueryString, error) {
	where, err := whereExpression(criteria.Where())
	if err != nil {
		return "", errors.Join(attribute.ErrBuildingQueryFailed, err)
	}

	countStmt := goqu.Dialect(dialectPostgres).
		From(c.tableName).
		Select(goqu.COUNT(goqu.Star()).As(aliasTotal))

	if where != nil {
		countStmt = countStmt.Where(where)
	}

	return toSQL(countStmt)
}

// buildGetQuery builds the select for one item by ID.
func (c *Controller) buildGetQuery(id string) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(c.tableName).
		Select(itemColumns()...).
		Where(goqu.C(colID).Eq(id)).
		Limit(1)

	return toSQL(selectStmt)
}

// buildFindQuery builds the select for one item by code and type, restricted to the domain if it is not empty.
func (c *Controller) buildFindQuery(code, typ, domain string) (sqlQueryString, error) {
	where := goqu.Ex{colCode: code, colType: typ}
	if domain != "" {
		where[colDomain] = domain
	}

	selectStmt := goqu.Dialect(dialectPostgres).
		From(c.tableName).
		Select(itemColumns()...).
		Where(where).
		Order(goqu.C(colID).Asc()).
		Limit(1)

	return toSQL(selectStmt)
}

// buildRefsQuery builds the select for the list references of the given items and domains.
func (c *Controller) buildRefsQuery(parentIDs []string, domains []string) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(c.listTableName).
		Select(colParentID, colDomain, colType, colRefID, colPosition).
		Where(
			goqu.C(colParentID).In(parentIDs),
			goqu.C(colDomain).In(domains),
		).
		Order(goqu.C(colParentID).Asc(), goqu.C(colDomain).Asc(), goqu.C(colPosition).Asc())

	return toSQL(selectStmt)
}

func toSQL(stmt *goqu.SelectDataset) (sqlQueryString, error) {
	sqlQuery, _, err := stmt.ToSQL()
	if err != nil {
		return "", errors.Join(attribute.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

// whereExpression translates the condition tree into a goqu expression.
// It returns nil for a condition that matches everything, so no WHERE clause is needed.
func whereExpression(condition attribute.Condition) (exp.Expression, error) {
	if combination, ok := condition.(attribute.Combination); ok &&
		combination.Combinator == attribute.CombineAnd &&
		len(combination.Conditions) == 0 {

		return nil, nil
	}

	return toExpression(condition)
}

func toExpression(condition attribute.Condition) (exp.Expression, error) {
	switch c := condition.(type) {
	case attribute.Comparison:
		return comparisonExpression(c)

	case attribute.Combination:
		if len(c.Conditions) == 0 {
			if c.Combinator == attribute.CombineOr {
				return goqu.L(literalFalse), nil
			}
			return goqu.L(literalTrue), nil
		}

		children := make([]exp.Expression, 0, len(c.Conditions))
		for _, child := range c.Conditions {
			expression, err := toExpression(child)
			if err != nil {
				return nil, err
			}
			children = append(children, expression)
		}

		if c.Combinator == attribute.CombineOr {
			return goqu.Or(children...), nil
		}
		return goqu.And(children...), nil

	case attribute.Negation:
		expression, err := toExpression(c.Condition)
		if err != nil {
			return nil, err
		}

		return goqu.L(literalNot, expression), nil

	default:
		return nil, fmt.Errorf("%w: %T", errUnsupportedCondition, condition)
	}
}

func comparisonExpression(c attribute.Comparison) (exp.Expression, error) {
	column, ok := searchKeyColumns[c.Key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", attribute.ErrUnknownSearchKey, c.Key)
	}

	if len(c.Values) == 0 {
		return nil, fmt.Errorf("%w: %s %s", attribute.ErrMissingComparisonValue, c.Key, c.Operator)
	}

	col := goqu.C(column)

	switch c.Operator {
	case attribute.OpEqual:
		if len(c.Values) == 1 {
			return col.Eq(c.Values[0]), nil
		}
		return col.In(c.Values), nil

	case attribute.OpNotEqual:
		if len(c.Values) == 1 {
			return col.Neq(c.Values[0]), nil
		}
		return col.NotIn(c.Values), nil
	}

	expressions := make([]exp.Expression, 0, len(c.Values))

	for _, value := range c.Values {
		expression, err := singleComparison(col, c.Operator, value)
		if err != nil {
			return nil, err
		}
		expressions = append(expressions, expression)
	}

	if len(expressions) == 1 {
		return expressions[0], nil
	}

	return goqu.Or(expressions...), nil
}

func singleComparison(col exp.IdentifierExpression, operator attribute.Operator, value any) (exp.Expression, error) {
	switch operator {
	case attribute.OpLess:
		return col.Lt(value), nil
	case attribute.OpLessOrEqual:
		return col.Lte(value), nil
	case attribute.OpGreaterOrEqual:
		return col.Gte(value), nil
	case attribute.OpGreater:
		return col.Gt(value), nil
	case attribute.OpStartsWith:
		return col.Like(escapeLike(fmt.Sprint(value)) + "%"), nil
	case attribute.OpContains:
		return col.Like("%" + escapeLike(fmt.Sprint(value)) + "%"), nil
	default:
		return nil, fmt.Errorf("%w: %q", attribute.ErrUnknownOperator, operator)
	}
}

// orderExpressions always ends with the ID as tie-breaker.
func orderExpressions(terms []attribute.SortTerm) []exp.OrderedExpression {
	order := make([]exp.OrderedExpression, 0, len(terms)+1)
	orderedByID := false

	for _, term := range terms {
		orderedByID = orderedByID || term.Key == attribute.KeyID

		column, ok := searchKeyColumns[term.Key]
		if !ok {
			continue
		}

		if term.Direction == attribute.SortDesc {
			order = append(order, goqu.C(column).Desc())
		} else {
			order = append(order, goqu.C(column).Asc())
		}
	}

	if !orderedByID {
		order = append(order, goqu.C(colID).Asc())
	}

	return order
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes the LIKE wildcards, so pattern operators match the value literally.
func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
