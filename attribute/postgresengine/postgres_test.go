package postgresengine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
	"github.com/AntonStoeckl/attribute-query-go/attribute/postgresengine"
	"github.com/AntonStoeckl/attribute-query-go/testutil/helper"
)

//nolint:funlen
func Test_SelectSQL_TranslatesCriteria(t *testing.T) {
	tests := []struct {
		name        string
		options     []postgresengine.Option
		build       func(c attribute.Controller) attribute.Controller
		contains    []string
		notContains []string
	}{
		{
			name:  "empty_criteria_select_the_default_slice_ordered_by_id",
			build: func(c attribute.Controller) attribute.Controller { return c },
			contains: []string{
				`SELECT "id", "code", "domain", "type", "label", "pos", "status", "ctime", "mtime" FROM "attributes"`,
				`ORDER BY "id" ASC LIMIT 100`,
			},
			notContains: []string{`WHERE`},
		},
		{
			name: "domain_types_sort_and_slice",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Domain("product").Type("size", "color").Sort("-position").Slice(2, 48)
			},
			contains: []string{
				`("domain" = 'product')`,
				`("type" IN ('color', 'size'))`,
				`ORDER BY "type" DESC, "pos" DESC, "id" ASC`,
				`LIMIT 48`,
				`OFFSET 2`,
			},
		},
		{
			name: "ids",
			build: func(c attribute.Controller) attribute.Controller {
				return c.IDs("2", "1")
			},
			contains: []string{`("id" IN ('1', '2'))`},
		},
		{
			name: "single_id",
			build: func(c attribute.Controller) attribute.Controller {
				return c.IDs("1")
			},
			contains: []string{`("id" = '1')`},
		},
		{
			name: "not_equal_list_means_not_in",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Compare(attribute.OpNotEqual, attribute.KeyCode, "red", "S")
			},
			contains: []string{`("code" NOT IN ('red', 'S'))`},
		},
		{
			name: "greater_than_on_int_key",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Compare(attribute.OpGreater, attribute.KeyStatus, "0")
			},
			contains: []string{`("status" > 0)`},
		},
		{
			name: "starts_with_and_contains_use_like",
			build: func(c attribute.Controller) attribute.Controller {
				return c.
					Compare(attribute.OpStartsWith, attribute.KeyLabel, "Gr").
					Compare(attribute.OpContains, attribute.KeyCode, "ee")
			},
			contains: []string{`("label" LIKE 'Gr%')`, `("code" LIKE '%ee%')`},
		},
		{
			name: "parsed_tree_with_or_and_not",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Parse(attribute.Conditions{"||": []any{
					attribute.Conditions{"==": attribute.Conditions{"attribute.position": 3}},
					attribute.Conditions{"!": attribute.Conditions{"<": attribute.Conditions{"attribute.status": 1}}},
				}})
			},
			contains: []string{`("pos" = 3)`, ` OR `, `NOT ("status" < 1)`},
		},
		{
			name:    "custom_table_name",
			options: []postgresengine.Option{postgresengine.WithTableName("mshop_attribute")},
			build: func(c attribute.Controller) attribute.Controller {
				return c.Sort("attribute.label")
			},
			contains: []string{`FROM "mshop_attribute"`, `ORDER BY "label" ASC, "id" ASC`},
		},
		{
			name: "sorting_by_id_needs_no_tie_breaker",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Sort("-attribute.id")
			},
			contains:    []string{`ORDER BY "id" DESC LIMIT 100`},
			notContains: []string{`"id" ASC`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// arrange
			controller, err := postgresengine.NewControllerFromAdapter(&fakeDB{}, tt.options...)
			require.NoError(t, err)
			tt.build(controller)

			// act
			result, err := controller.Call(context.Background(), postgresengine.ExtensionSelectSQL)

			// assert
			require.NoError(t, err)
			sqlQuery, ok := result.(string)
			require.True(t, ok)

			for _, fragment := range tt.contains {
				assert.Contains(t, sqlQuery, fragment)
			}
			for _, fragment := range tt.notContains {
				assert.NotContains(t, sqlQuery, fragment)
			}
		})
	}
}

func Test_SelectSQL_FailsForInvalidCriteria(t *testing.T) {
	controller, err := postgresengine.NewControllerFromAdapter(&fakeDB{})
	require.NoError(t, err)

	_, err = controller.Sort("attribute.unknown").(*postgresengine.Controller).Call(context.Background(), postgresengine.ExtensionSelectSQL)

	assert.ErrorIs(t, err, attribute.ErrInvalidQuery)
}

func Test_Search(t *testing.T) {
	ctx := context.Background()
	colors := attribute.Items{
		helper.FixtureItem(t, helper.FixtureIDColorRed),
		helper.FixtureItem(t, helper.FixtureIDColorBlue),
		helper.FixtureItem(t, helper.FixtureIDColorGreen),
	}

	t.Run("scans_items_total_and_refs", func(t *testing.T) {
		// arrange
		db := &fakeDB{total: 3, items: itemRows(colors), refs: refRows(colors)}
		controller, err := postgresengine.NewControllerFromAdapter(db)
		require.NoError(t, err)

		// act
		items, total, err := controller.Domain("product").Type("color").Search(ctx, "text", "media")

		// assert
		require.NoError(t, err)
		assert.Equal(t, attribute.TotalCountUint(3), total)
		assert.Equal(t, []string{"1", "2", "3"}, helper.IDsOf(items))
		assert.Equal(t, colors[0].Refs, items[0].Refs)
		assert.Equal(t, colors[1].Refs, items[1].Refs)
		assert.Nil(t, items[2].Refs)
		assert.Equal(t, colors[0].ModifiedAt, items[0].ModifiedAt)

		queries := db.recordedQueries()
		require.Len(t, queries, 3)
		assert.Contains(t, queries[0], `COUNT(*)`)
		assert.Contains(t, queries[1], `("type" = 'color')`)
		assert.Contains(t, queries[2], `FROM "attribute_lists"`)
		assert.Contains(t, queries[2], `("parentid" IN ('1', '2', '3'))`)
		assert.Contains(t, queries[2], `("domain" IN ('text', 'media'))`)
	})

	t.Run("without_domains_skips_the_refs", func(t *testing.T) {
		db := &fakeDB{total: 3, items: itemRows(colors), refs: refRows(colors)}
		controller, err := postgresengine.NewControllerFromAdapter(db)
		require.NoError(t, err)

		items, _, err := controller.Search(ctx)

		require.NoError(t, err)
		assert.Len(t, items, 3)
		assert.Nil(t, items[0].Refs)
		assert.Len(t, db.recordedQueries(), 2)
	})

	t.Run("slice_beyond_the_total_only_counts", func(t *testing.T) {
		db := &fakeDB{total: 3, items: itemRows(colors)}
		controller, err := postgresengine.NewControllerFromAdapter(db)
		require.NoError(t, err)

		items, total, err := controller.Slice(3, 10).Search(ctx, "text")

		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Equal(t, attribute.TotalCountUint(3), total)
		assert.Len(t, db.recordedQueries(), 1)
	})

	t.Run("invalid_criteria_run_no_query", func(t *testing.T) {
		db := &fakeDB{}
		controller, err := postgresengine.NewControllerFromAdapter(db)
		require.NoError(t, err)

		_, _, err = controller.Slice(-1, 10).Search(ctx)

		assert.ErrorIs(t, err, attribute.ErrInvalidQuery)
		assert.Empty(t, db.recordedQueries())
	})

	t.Run("database_errors_are_joined", func(t *testing.T) {
		errConnection := errors.New("connection refused")
		db := &fakeDB{total: 3, items: itemRows(colors), failOn: `"mtime"`, queryErr: errConnection}
		controller, err := postgresengine.NewControllerFromAdapter(db)
		require.NoError(t, err)

		_, _, err = controller.Search(ctx)

		assert.ErrorIs(t, err, attribute.ErrQueryingAttributesFailed)
		assert.ErrorIs(t, err, errConnection)
	})

	t.Run("scan_errors_are_joined", func(t *testing.T) {
		row := itemRow(colors[0])
		row[5] = "first"
		db := &fakeDB{total: 1, items: [][]any{row}}
		controller, err := postgresengine.NewControllerFromAdapter(db)
		require.NoError(t, err)

		_, _, err = controller.Search(ctx)

		assert.ErrorIs(t, err, attribute.ErrScanningDBRowFailed)
	})
}

func Test_Get(t *testing.T) {
	ctx := context.Background()
	red := helper.FixtureItem(t, helper.FixtureIDColorRed)

	t.Run("by_id_ignoring_filters", func(t *testing.T) {
		db := &fakeDB{items: itemRows(attribute.Items{red}), refs: refRows(attribute.Items{red})}
		controller, err := postgresengine.NewControllerFromAdapter(db)
		require.NoError(t, err)

		item, err := controller.Type("size").Get(ctx, red.ID, "text", "media")

		require.NoError(t, err)
		assert.Equal(t, red, item)

		queries := db.recordedQueries()
		require.Len(t, queries, 2)
		assert.Contains(t, queries[0], `("id" = '1')`)
		assert.Contains(t, queries[0], `LIMIT 1`)
		assert.NotContains(t, queries[0], `'size'`)
	})

	t.Run("missing_item", func(t *testing.T) {
		controller, err := postgresengine.NewControllerFromAdapter(&fakeDB{})
		require.NoError(t, err)

		_, err = controller.Get(ctx, "404")

		assert.ErrorIs(t, err, attribute.ErrNotFound)
		assert.Contains(t, err.Error(), `"404"`)
	})
}

func Test_Find(t *testing.T) {
	ctx := context.Background()
	catalogRed := helper.FixtureItem(t, helper.FixtureIDCatalogColor)

	t.Run("restricted_to_the_domain", func(t *testing.T) {
		db := &fakeDB{items: itemRows(attribute.Items{catalogRed})}
		controller, err := postgresengine.NewControllerFromAdapter(db)
		require.NoError(t, err)

		item, err := controller.Domain("catalog").Find(ctx, "red", "color")

		require.NoError(t, err)
		assert.Equal(t, helper.FixtureIDCatalogColor, item.ID)

		queries := db.recordedQueries()
		require.Len(t, queries, 1)
		assert.Contains(t, queries[0], `("code" = 'red')`)
		assert.Contains(t, queries[0], `("domain" = 'catalog')`)
		assert.Contains(t, queries[0], `("type" = 'color')`)
	})

	t.Run("missing_item", func(t *testing.T) {
		controller, err := postgresengine.NewControllerFromAdapter(&fakeDB{})
		require.NoError(t, err)

		_, err = controller.Find(ctx, "XL", "size")

		assert.ErrorIs(t, err, attribute.ErrNotFound)
	})
}

func Test_Clone_IsIndependent(t *testing.T) {
	// arrange
	controller, err := postgresengine.NewControllerFromAdapter(&fakeDB{})
	require.NoError(t, err)
	controller.Domain("product")

	// act
	clone := controller.Clone().Type("size").Slice(0, 10)

	// assert
	assert.Empty(t, controller.Criteria().Types())
	assert.Equal(t, 100, controller.Criteria().Limit())
	assert.Equal(t, []string{"size"}, clone.Criteria().Types())
	assert.Equal(t, "product", clone.Criteria().Domain())
}

func Test_Call(t *testing.T) {
	ctx := context.Background()

	t.Run("custom_extension", func(t *testing.T) {
		controller, err := postgresengine.NewControllerFromAdapter(
			&fakeDB{},
			postgresengine.WithExtension("now", func(context.Context, attribute.Controller, ...any) (any, error) {
				return helper.FixtureClock, nil
			}),
		)
		require.NoError(t, err)

		result, err := controller.Call(ctx, "now")

		require.NoError(t, err)
		assert.Equal(t, helper.FixtureClock, result.(time.Time))
	})

	t.Run("unknown_extension", func(t *testing.T) {
		controller, err := postgresengine.NewControllerFromAdapter(&fakeDB{})
		require.NoError(t, err)

		_, err = controller.Call(ctx, "unknown")

		assert.ErrorIs(t, err, attribute.ErrUnknownOperation)
	})
}
