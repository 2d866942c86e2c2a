package postgresengine_test

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
	"github.com/AntonStoeckl/attribute-query-go/attribute/postgresengine/internal/adapters"
)

// fakeDB answers count, item and list reference selects with canned rows and records every query.
type fakeDB struct {
	total    int64
	items    [][]any
	refs     [][]any
	failOn   string
	queryErr error
	queries  []string
	mu       sync.Mutex
}

func (f *fakeDB) Query(_ context.Context, query string) (adapters.DBRows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, query)

	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return nil, f.queryErr
	}

	switch {
	case strings.Contains(query, "COUNT(*)"):
		return &fakeRows{rows: [][]any{{f.total}}}, nil
	case strings.Contains(query, `"parentid"`):
		return &fakeRows{rows: f.refs}, nil
	default:
		return &fakeRows{rows: f.items}, nil
	}
}

func (f *fakeDB) recordedQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.queries...)
}

type fakeRows struct {
	rows    [][]any
	current int
	closed  bool
}

func (r *fakeRows) Next() bool {
	if r.current >= len(r.rows) {
		return false
	}
	r.current++

	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.current-1]
	if len(row) != len(dest) {
		return fmt.Errorf("expected %d destinations, got %d", len(row), len(dest))
	}

	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		value := reflect.ValueOf(row[i])

		if !value.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("cannot scan %s into %s", value.Type(), target.Type())
		}
		target.Set(value)
	}

	return nil
}

func (r *fakeRows) Err() error {
	return nil
}

func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}

func itemRow(item attribute.Item) []any {
	return []any{
		item.ID,
		item.Code,
		item.Domain,
		item.Type,
		item.Label,
		item.Position,
		item.Status,
		item.CreatedAt,
		item.ModifiedAt,
	}
}

func itemRows(items attribute.Items) [][]any {
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, itemRow(item))
	}

	return rows
}

func refRows(items attribute.Items) [][]any {
	rows := make([][]any, 0)
	for _, item := range items {
		for _, refs := range item.Refs {
			for _, ref := range refs {
				rows = append(rows, []any{item.ID, ref.Domain, ref.Type, ref.RefID, ref.Position})
			}
		}
	}

	return rows
}
