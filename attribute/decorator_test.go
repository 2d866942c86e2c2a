package attribute_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
	"github.com/AntonStoeckl/attribute-query-go/attribute/memoryengine"
	"github.com/AntonStoeckl/attribute-query-go/testutil/helper"
)

func Test_NewDecorator_RejectsNonControllers(t *testing.T) {
	var nilEngine *memoryengine.Controller

	tests := []struct {
		name  string
		value any
	}{
		{name: "nil", value: nil},
		{name: "string", value: "controller"},
		{name: "criteria", value: attribute.BuildCriteria()},
		{name: "typed_nil_controller", value: nilEngine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// act
			decorator, err := attribute.NewDecorator(tt.value)

			// assert
			assert.ErrorIs(t, err, attribute.ErrTypeMismatch)
			assert.Nil(t, decorator)
		})
	}
}

func Test_Decorator_ChainingReturnsTheDecorator(t *testing.T) {
	// arrange
	decorator := givenDecoratedMemoryController(t)

	// act + assert
	assert.Same(t, decorator, decorator.IDs(helper.FixtureIDColorRed))
	assert.Same(t, decorator, decorator.Compare(attribute.OpGreater, attribute.KeyStatus, 0))
	assert.Same(t, decorator, decorator.Domain("product"))
	assert.Same(t, decorator, decorator.Parse(attribute.Conditions{"==": attribute.Conditions{"attribute.code": "red"}}))
	assert.Same(t, decorator, decorator.Slice(0, 10))
	assert.Same(t, decorator, decorator.Sort("position"))
	assert.Same(t, decorator, decorator.Type("color"))
}

func Test_Decorator_ForwardsFilterOperationsToTheWrappedController(t *testing.T) {
	// arrange
	direct, err := memoryengine.NewController(helper.FixtureItems())
	require.NoError(t, err)

	decorator := givenDecoratedMemoryController(t)

	chain := func(c attribute.Controller) {
		c.IDs(helper.FixtureIDColorRed, helper.FixtureIDColorBlue, helper.FixtureIDSizeS).
			Domain("product").
			Type("color", "size").
			Compare(attribute.OpGreater, attribute.KeyStatus, 0).
			Parse(attribute.Conditions{"!=": attribute.Conditions{"attribute.code": "blue"}}).
			Sort("-position").
			Slice(0, 2)
	}

	// act
	chain(direct)
	chain(decorator)

	// assert
	assert.Equal(t, direct.Criteria(), decorator.Criteria())
	assert.Equal(t, direct.Criteria(), decorator.Controller().Criteria())
	assert.Equal(t, direct.Criteria().Hash(), decorator.Criteria().Hash())
}

func Test_Decorator_CloneIsIndependent(t *testing.T) {
	// arrange
	decorator := givenDecoratedMemoryController(t)
	decorator.Type("color")

	// act
	clone := decorator.Clone()
	clone.Type("size").Slice(0, 1)

	// assert
	assert.NotSame(t, decorator, clone)
	assert.Equal(t, []string{"color"}, decorator.Criteria().Types())
	assert.Equal(t, 100, decorator.Criteria().Limit())
	assert.Equal(t, []string{"color", "size"}, clone.Criteria().Types())
	assert.Equal(t, 1, clone.Criteria().Limit())

	clonedDecorator, ok := clone.(*attribute.Decorator)
	require.True(t, ok)
	assert.NotSame(t, decorator.Controller(), clonedDecorator.Controller())
	assert.Same(t, clonedDecorator, clone.Domain("product"))
}

func Test_Decorator_TerminalOperationsPassThrough(t *testing.T) {
	ctx := context.Background()
	errBackend := errors.New("backend down")

	t.Run("search_returns_items_and_total_unchanged", func(t *testing.T) {
		// arrange
		inner := &fakeController{
			items: attribute.Items{helper.FixtureItem(t, helper.FixtureIDSizeM)},
			total: 42,
		}
		decorator, err := attribute.NewDecorator(inner)
		require.NoError(t, err)

		// act
		items, total, err := decorator.Search(ctx, "text")

		// assert
		require.NoError(t, err)
		assert.Equal(t, inner.items, items)
		assert.Equal(t, attribute.TotalCountUint(42), total)
		assert.Equal(t, []string{"text"}, inner.lastDomains)
	})

	t.Run("errors_are_not_wrapped", func(t *testing.T) {
		// arrange
		inner := &fakeController{err: errBackend}
		decorator, err := attribute.NewDecorator(inner)
		require.NoError(t, err)

		// act
		_, _, searchErr := decorator.Search(ctx)
		_, getErr := decorator.Get(ctx, "1")
		_, findErr := decorator.Find(ctx, "red", "color")

		// assert
		assert.Same(t, errBackend, searchErr)
		assert.Same(t, errBackend, getErr)
		assert.Same(t, errBackend, findErr)
	})

	t.Run("get_and_find_match_the_wrapped_controller", func(t *testing.T) {
		// arrange
		direct, err := memoryengine.NewController(helper.FixtureItems())
		require.NoError(t, err)
		decorator := givenDecoratedMemoryController(t)

		// act
		expectedGet, expectedGetErr := direct.Get(ctx, helper.FixtureIDColorRed, "text")
		get, getErr := decorator.Get(ctx, helper.FixtureIDColorRed, "text")
		expectedFind, expectedFindErr := direct.Find(ctx, "S", "size", "price")
		find, findErr := decorator.Find(ctx, "S", "size", "price")
		_, missingErr := decorator.Get(ctx, "404")

		// assert
		require.NoError(t, expectedGetErr)
		require.NoError(t, expectedFindErr)
		assert.NoError(t, getErr)
		assert.NoError(t, findErr)
		assert.Equal(t, expectedGet, get)
		assert.Equal(t, expectedFind, find)
		assert.ErrorIs(t, missingErr, attribute.ErrNotFound)
	})

	t.Run("invalid_criteria_surface_on_search", func(t *testing.T) {
		// arrange
		decorator := givenDecoratedMemoryController(t)

		// act
		_, _, err := decorator.Slice(-1, 10).Search(ctx)

		// assert
		assert.ErrorIs(t, err, attribute.ErrInvalidQuery)
	})
}

func Test_Decorator_Call(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown_operation_returns_nothing", func(t *testing.T) {
		decorator := givenDecoratedMemoryController(t)

		result, err := decorator.Call(ctx, "doesNotExist", 1, "two")

		assert.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("wrapped_controller_without_extensions_returns_nothing", func(t *testing.T) {
		decorator, err := attribute.NewDecorator(&fakeController{})
		require.NoError(t, err)

		result, err := decorator.Call(ctx, "count")

		assert.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("known_operation_is_forwarded", func(t *testing.T) {
		decorator := givenDecoratedMemoryController(t)
		decorator.Type("color").Slice(0, 1)

		result, err := decorator.Call(ctx, memoryengine.ExtensionCount)

		assert.NoError(t, err)
		assert.Equal(t, attribute.TotalCountUint(4), result)
	})

	t.Run("errors_of_known_operations_propagate", func(t *testing.T) {
		errExtension := errors.New("extension failed")
		inner, err := memoryengine.NewController(
			helper.FixtureItems(),
			memoryengine.WithExtension("fail", func(context.Context, attribute.Controller, ...any) (any, error) {
				return nil, errExtension
			}),
		)
		require.NoError(t, err)
		decorator, err := attribute.NewDecorator(inner)
		require.NoError(t, err)

		_, err = decorator.Call(ctx, "fail")

		assert.ErrorIs(t, err, errExtension)
	})
}

func Test_Decorator_EmbeddingKeepsTheOutermostLayer(t *testing.T) {
	// arrange
	inner, err := memoryengine.NewController(helper.FixtureItems())
	require.NoError(t, err)

	counting, err := newCountingDecorator(inner)
	require.NoError(t, err)

	// act
	items, _, err := counting.Domain("product").Type("size").Search(context.Background())
	clone := counting.Clone()
	_, _, cloneErr := clone.Type("color").Search(context.Background())

	// assert
	require.NoError(t, err)
	require.NoError(t, cloneErr)
	assert.Len(t, items, 3)
	assert.Same(t, counting, counting.Sort("position"))
	assert.Equal(t, 1, counting.searches)
	assert.IsType(t, &countingDecorator{}, clone)
	assert.Equal(t, 1, clone.(*countingDecorator).searches)
	assert.Equal(t, []string{"size"}, counting.Criteria().Types())
}

/***** test doubles *****/

func givenDecoratedMemoryController(t *testing.T) *attribute.Decorator {
	t.Helper()

	inner, err := memoryengine.NewController(helper.FixtureItems())
	require.NoError(t, err)

	decorator, err := attribute.NewDecorator(inner)
	require.NoError(t, err)

	return decorator
}

// countingDecorator counts Search calls; it shows how concrete decorators extend the base.
type countingDecorator struct {
	*attribute.Decorator
	searches int
}

func newCountingDecorator(controller attribute.Controller) (*countingDecorator, error) {
	base, err := attribute.NewDecorator(controller)
	if err != nil {
		return nil, err
	}

	d := &countingDecorator{Decorator: base}
	d.Bind(d)

	return d, nil
}

func (d *countingDecorator) Search(ctx context.Context, domains ...string) (attribute.Items, attribute.TotalCountUint, error) {
	d.searches++
	return d.Decorator.Search(ctx, domains...)
}

func (d *countingDecorator) Clone() attribute.Controller {
	c := &countingDecorator{Decorator: d.CloneDecorator()}
	c.Bind(c)

	return c
}

// fakeController returns canned results and does not implement attribute.Extender.
type fakeController struct {
	criteria    attribute.Criteria
	items       attribute.Items
	total       attribute.TotalCountUint
	err         error
	lastDomains []string
}

func (f *fakeController) IDs(ids ...string) attribute.Controller {
	f.criteria = f.criteria.WithIDs(ids...)
	return f
}

func (f *fakeController) Compare(operator attribute.Operator, key attribute.KeyString, values ...any) attribute.Controller {
	f.criteria = f.criteria.WithComparison(operator, key, values...)
	return f
}

func (f *fakeController) Domain(domain string) attribute.Controller {
	f.criteria = f.criteria.WithDomain(domain)
	return f
}

func (f *fakeController) Parse(conditions attribute.Conditions) attribute.Controller {
	f.criteria = f.criteria.WithConditions(conditions)
	return f
}

func (f *fakeController) Slice(start, limit int) attribute.Controller {
	f.criteria = f.criteria.WithSlice(start, limit)
	return f
}

func (f *fakeController) Sort(key string) attribute.Controller {
	f.criteria = f.criteria.WithSort(key)
	return f
}

func (f *fakeController) Type(codes ...string) attribute.Controller {
	f.criteria = f.criteria.WithTypes(codes...)
	return f
}

func (f *fakeController) Get(_ context.Context, _ string, domains ...string) (attribute.Item, error) {
	f.lastDomains = domains
	if f.err != nil {
		return attribute.Item{}, f.err
	}

	return f.items[0], nil
}

func (f *fakeController) Find(_ context.Context, _ string, _ string, domains ...string) (attribute.Item, error) {
	f.lastDomains = domains
	if f.err != nil {
		return attribute.Item{}, f.err
	}

	return f.items[0], nil
}

func (f *fakeController) Search(_ context.Context, domains ...string) (attribute.Items, attribute.TotalCountUint, error) {
	f.lastDomains = domains
	if f.err != nil {
		return nil, 0, f.err
	}

	return f.items, f.total, nil
}

func (f *fakeController) Criteria() attribute.Criteria {
	return f.criteria
}

func (f *fakeController) Clone() attribute.Controller {
	clone := *f
	return &clone
}
