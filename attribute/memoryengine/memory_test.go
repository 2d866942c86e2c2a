package memoryengine_test

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
	"github.com/AntonStoeckl/attribute-query-go/attribute/memoryengine"
	"github.com/AntonStoeckl/attribute-query-go/testutil/helper"
)

//nolint:funlen
func Test_Search(t *testing.T) {
	tests := []struct {
		name          string
		build         func(c attribute.Controller) attribute.Controller
		expectedIDs   []string
		expectedTotal attribute.TotalCountUint
	}{
		{
			name:          "no_criteria_returns_all_items",
			build:         func(c attribute.Controller) attribute.Controller { return c },
			expectedIDs:   []string{"1", "2", "3", "4", "5", "6", "7"},
			expectedTotal: 7,
		},
		{
			name: "domain_and_type",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Domain("product").Type("color")
			},
			expectedIDs:   []string{"1", "2", "3"},
			expectedTotal: 3,
		},
		{
			name: "ids_are_or_ed",
			build: func(c attribute.Controller) attribute.Controller {
				return c.IDs("6", "2", "404")
			},
			expectedIDs:   []string{"2", "6"},
			expectedTotal: 2,
		},
		{
			name: "status_comparison",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Domain("product").Compare(attribute.OpGreater, attribute.KeyStatus, 0)
			},
			expectedIDs:   []string{"1", "2", "4", "5"},
			expectedTotal: 4,
		},
		{
			name: "equal_with_list_means_in",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Compare(attribute.OpEqual, attribute.KeyCode, "red", "S")
			},
			expectedIDs:   []string{"1", "4", "7"},
			expectedTotal: 3,
		},
		{
			name: "not_equal_with_list_means_not_in",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Domain("product").Compare(attribute.OpNotEqual, attribute.KeyCode, "red", "S")
			},
			expectedIDs:   []string{"2", "3", "5", "6"},
			expectedTotal: 4,
		},
		{
			name: "starts_with_and_contains",
			build: func(c attribute.Controller) attribute.Controller {
				return c.
					Compare(attribute.OpStartsWith, attribute.KeyLabel, "Gr", "La").
					Compare(attribute.OpContains, attribute.KeyLabel, "e")
			},
			expectedIDs:   []string{"3", "6"},
			expectedTotal: 2,
		},
		{
			name: "parsed_tree_with_or_and_not",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Domain("product").Parse(attribute.Conditions{"||": []any{
					attribute.Conditions{"==": attribute.Conditions{"attribute.position": 3}},
					attribute.Conditions{"!": attribute.Conditions{"<": attribute.Conditions{"attribute.status": 1}}},
				}})
			},
			expectedIDs:   []string{"1", "2", "3", "4", "5", "6"},
			expectedTotal: 6,
		},
		{
			name: "time_comparison",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Compare(attribute.OpGreaterOrEqual, attribute.KeyMtime, helper.FixtureClock.Add(5*time.Hour))
			},
			expectedIDs:   []string{"5", "6", "7"},
			expectedTotal: 3,
		},
		{
			name: "sort_by_position_groups_by_type",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Domain("product").Sort("position")
			},
			expectedIDs:   []string{"1", "2", "3", "4", "5", "6"},
			expectedTotal: 6,
		},
		{
			name: "sort_descending",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Domain("product").Type("size").Sort("-attribute.position")
			},
			expectedIDs:   []string{"6", "5", "4"},
			expectedTotal: 3,
		},
		{
			name: "sort_by_label_is_stable",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Sort("attribute.label")
			},
			expectedIDs:   []string{"2", "3", "6", "5", "1", "7", "4"},
			expectedTotal: 7,
		},
		{
			name: "slice_keeps_the_total",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Domain("product").Sort("position").Slice(2, 3)
			},
			expectedIDs:   []string{"3", "4", "5"},
			expectedTotal: 6,
		},
		{
			name: "slice_beyond_the_end",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Slice(10, 5)
			},
			expectedIDs:   []string{},
			expectedTotal: 7,
		},
		{
			name: "slice_with_huge_limit",
			build: func(c attribute.Controller) attribute.Controller {
				return c.Domain("product").Slice(4, math.MaxInt)
			},
			expectedIDs:   []string{"5", "6"},
			expectedTotal: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// arrange
			controller, err := memoryengine.NewController(helper.FixtureItems())
			require.NoError(t, err)

			// act
			items, total, err := tt.build(controller).Search(context.Background())

			// assert
			require.NoError(t, err)
			assert.Equal(t, tt.expectedIDs, helper.IDsOf(items))
			assert.Equal(t, tt.expectedTotal, total)
		})
	}
}

func Test_Search_BreaksTiesByID(t *testing.T) {
	// arrange
	items := helper.FixtureItems()
	slices.Reverse(items)

	controller, err := memoryengine.NewController(items)
	require.NoError(t, err)

	// act
	unsorted, _, unsortedErr := controller.Clone().Domain("product").Search(context.Background())
	byType, _, byTypeErr := controller.Clone().Domain("product").Sort("attribute.type").Search(context.Background())

	// assert
	require.NoError(t, unsortedErr)
	require.NoError(t, byTypeErr)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, helper.IDsOf(unsorted))
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, helper.IDsOf(byType))
}

func Test_Search_FailsForInvalidCriteria(t *testing.T) {
	// arrange
	controller, err := memoryengine.NewController(helper.FixtureItems())
	require.NoError(t, err)

	// act
	items, total, err := controller.
		Compare(attribute.OpStartsWith, attribute.KeyStatus, 1).
		Search(context.Background())

	// assert
	assert.ErrorIs(t, err, attribute.ErrInvalidQuery)
	assert.ErrorIs(t, err, attribute.ErrPatternOnNonStringKey)
	assert.Nil(t, items)
	assert.Zero(t, total)
}

func Test_Search_ReturnsRefsOfRequestedDomainsOnly(t *testing.T) {
	// arrange
	controller, err := memoryengine.NewController(helper.FixtureItems())
	require.NoError(t, err)

	// act
	items, _, err := controller.IDs(helper.FixtureIDColorRed).Search(context.Background(), "text")

	// assert
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Len(t, items[0].RefsOf("text"), 1)
	assert.Empty(t, items[0].RefsOf("media"))
}

func Test_Get(t *testing.T) {
	ctx := context.Background()
	controller, err := memoryengine.NewController(helper.FixtureItems())
	require.NoError(t, err)

	t.Run("ignores_accumulated_filters", func(t *testing.T) {
		item, err := controller.Clone().Type("size").Get(ctx, helper.FixtureIDColorRed, "media", "price")

		require.NoError(t, err)
		assert.Equal(t, "red", item.Code)
		assert.Len(t, item.Refs, 1)
		assert.Len(t, item.RefsOf("media"), 1)
	})

	t.Run("without_domains_returns_no_refs", func(t *testing.T) {
		item, err := controller.Get(ctx, helper.FixtureIDColorRed)

		require.NoError(t, err)
		assert.Nil(t, item.Refs)
	})

	t.Run("missing_item", func(t *testing.T) {
		_, err := controller.Get(ctx, "404")

		assert.ErrorIs(t, err, attribute.ErrNotFound)
	})
}

func Test_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("by_code_and_type", func(t *testing.T) {
		controller, err := memoryengine.NewController(helper.FixtureItems())
		require.NoError(t, err)

		item, err := controller.Find(ctx, "M", "size")

		require.NoError(t, err)
		assert.Equal(t, helper.FixtureIDSizeM, item.ID)
	})

	t.Run("restricted_to_the_domain", func(t *testing.T) {
		controller, err := memoryengine.NewController(helper.FixtureItems())
		require.NoError(t, err)

		item, err := controller.Domain("catalog").Find(ctx, "red", "color")

		require.NoError(t, err)
		assert.Equal(t, helper.FixtureIDCatalogColor, item.ID)
	})

	t.Run("missing_item", func(t *testing.T) {
		controller, err := memoryengine.NewController(helper.FixtureItems())
		require.NoError(t, err)

		_, err = controller.Find(ctx, "XL", "size")

		assert.ErrorIs(t, err, attribute.ErrNotFound)
	})
}

func Test_ReturnedItemsDoNotShareState(t *testing.T) {
	// arrange
	seed := helper.FixtureItems()
	controller, err := memoryengine.NewController(seed)
	require.NoError(t, err)
	ctx := context.Background()

	// act
	seed[0].Refs["text"][0].RefID = "changed-in-seed"
	first, err := controller.Get(ctx, helper.FixtureIDColorRed, "text")
	require.NoError(t, err)
	first.Refs["text"][0].RefID = "changed-in-result"
	second, err := controller.Get(ctx, helper.FixtureIDColorRed, "text")
	require.NoError(t, err)

	// assert
	assert.Equal(t, "t-1", second.RefsOf("text")[0].RefID)
}

func Test_Clone_IsIndependent(t *testing.T) {
	// arrange
	controller, err := memoryengine.NewController(helper.FixtureItems())
	require.NoError(t, err)
	controller.Domain("product")

	// act
	clone := controller.Clone().Type("size")
	items, total, err := controller.Search(context.Background())

	// assert
	require.NoError(t, err)
	assert.Len(t, items, 6)
	assert.Equal(t, attribute.TotalCountUint(6), total)
	assert.Equal(t, []string{"size"}, clone.Criteria().Types())
	assert.Empty(t, controller.Criteria().Types())
}

func Test_Call(t *testing.T) {
	ctx := context.Background()

	t.Run("count_ignores_the_slice", func(t *testing.T) {
		controller, err := memoryengine.NewController(helper.FixtureItems())
		require.NoError(t, err)
		controller.Domain("product").Slice(0, 1)

		result, err := controller.Call(ctx, memoryengine.ExtensionCount)

		require.NoError(t, err)
		assert.Equal(t, attribute.TotalCountUint(6), result)
	})

	t.Run("custom_extension_receives_args_and_controller", func(t *testing.T) {
		controller, err := memoryengine.NewController(
			helper.FixtureItems(),
			memoryengine.WithExtension("domain", func(_ context.Context, c attribute.Controller, args ...any) (any, error) {
				return []any{c.Criteria().Domain(), args}, nil
			}),
		)
		require.NoError(t, err)

		result, err := controller.Domain("catalog").(*memoryengine.Controller).Call(ctx, "domain", 1)

		require.NoError(t, err)
		assert.Equal(t, []any{"catalog", []any{1}}, result)
	})

	t.Run("unknown_extension", func(t *testing.T) {
		controller, err := memoryengine.NewController(nil)
		require.NoError(t, err)

		_, err = controller.Call(ctx, "unknown")

		assert.ErrorIs(t, err, attribute.ErrUnknownOperation)
	})

	t.Run("extension_without_function_is_rejected", func(t *testing.T) {
		_, err := memoryengine.NewController(nil, memoryengine.WithExtension("broken", nil))

		assert.ErrorIs(t, err, attribute.ErrInvalidExtension)
		assert.NotErrorIs(t, err, attribute.ErrUnknownOperation)
	})

	t.Run("extension_without_name_is_rejected", func(t *testing.T) {
		_, err := memoryengine.NewController(nil, memoryengine.WithExtension("", func(context.Context, attribute.Controller, ...any) (any, error) {
			return nil, nil
		}))

		assert.ErrorIs(t, err, attribute.ErrInvalidExtension)
	})
}

func Test_Search_LogsCompletion(t *testing.T) {
	// arrange
	logHandler := helper.NewLogHandlerSpy(false)
	controller, err := memoryengine.NewController(
		helper.FixtureItems(),
		memoryengine.WithLogger(slog.New(logHandler)),
	)
	require.NoError(t, err)

	// act
	_, _, err = controller.Type("size").Search(context.Background())

	// assert
	require.NoError(t, err)
	assert.True(t, logHandler.HasDebugLogWithMessage("memory search completed").WithItemCount().Assert())
}
