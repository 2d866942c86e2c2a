package memoryengine

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
)

const (
	// ExtensionCount returns the number of attributes matching the accumulated criteria, ignoring the slice.
	ExtensionCount = "count"

	logMsgSearchCompleted = "memory search completed"
	logAttrItemCount      = "item_count"
	logAttrTotal          = "total"
)

// Controller implements attribute.Controller on top of an in-memory item set.
type Controller struct {
	items      attribute.Items
	criteria   attribute.Criteria
	extensions attribute.Extensions
	logger     attribute.Logger
}

// Option defines a functional option for configuring Controller.
type Option func(*Controller) error

// WithExtension registers an extension operation reachable via Call.
func WithExtension(name string, fn attribute.ExtensionFunc) Option {
	return func(c *Controller) error {
		if name == "" || fn == nil {
			return fmt.Errorf("%w: got name %q", attribute.ErrInvalidExtension, name)
		}

		c.extensions = c.extensions.With(name, fn)

		return nil
	}
}

// WithLogger sets the logger for the Controller.
func WithLogger(logger attribute.Logger) Option {
	return func(c *Controller) error {
		c.logger = logger
		return nil
	}
}

// NewController creates a Controller for the given items, which are copied.
func NewController(items attribute.Items, options ...Option) (*Controller, error) {
	seeded := make(attribute.Items, 0, len(items))
	for _, item := range items {
		seeded = append(seeded, item.Copy())
	}

	c := &Controller{
		items: seeded,
		extensions: attribute.Extensions{
			ExtensionCount: count,
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

// Clone returns a Controller with a copy of the accumulated criteria sharing the read-only item set.
func (c *Controller) Clone() attribute.Controller {
	clone := *c
	return &clone
}

// Get returns the attribute with the given ID, regardless of the accumulated filters.
func (c *Controller) Get(_ context.Context, id string, domains ...string) (attribute.Item, error) {
	for _, item := range c.items {
		if item.ID == id {
			return item.OnlyRefsOf(domains...), nil
		}
	}

	return attribute.Item{}, fmt.Errorf("%w: id %q", attribute.ErrNotFound, id)
}

// Find returns the attribute with the given code and type, restricted to the domain if one is set.
func (c *Controller) Find(_ context.Context, code string, typ string, domains ...string) (attribute.Item, error) {
	domain := c.criteria.Domain()

	for _, item := range c.items {
		if item.Code != code || item.Type != typ {
			continue
		}

		if domain != "" && item.Domain != domain {
			continue
		}

		return item.OnlyRefsOf(domains...), nil
	}

	return attribute.Item{}, fmt.Errorf("%w: code %q, type %q", attribute.ErrNotFound, code, typ)
}

// Search returns the attributes matching the accumulated criteria and the total number of matches.
func (c *Controller) Search(_ context.Context, domains ...string) (attribute.Items, attribute.TotalCountUint, error) {
	if err := c.criteria.Err(); err != nil {
		return nil, 0, err
	}

	where := c.criteria.Where()
	matching := make(attribute.Items, 0)

	for _, item := range c.items {
		if matches(item, where) {
			matching = append(matching, item)
		}
	}

	sortItems(matching, c.criteria.Sort())

	total := attribute.TotalCountUint(len(matching))
	start := min(c.criteria.Start(), len(matching))
	end := len(matching)
	if limit := c.criteria.Limit(); limit < end-start {
		end = start + limit
	}

	result := make(attribute.Items, 0, end-start)
	for _, item := range matching[start:end] {
		result = append(result, item.OnlyRefsOf(domains...))
	}

	if c.logger != nil {
		c.logger.Debug(logMsgSearchCompleted, logAttrItemCount, len(result), logAttrTotal, total)
	}

	return result, total, nil
}

// Call runs a registered extension operation.
func (c *Controller) Call(ctx context.Context, name string, args ...any) (any, error) {
	return c.extensions.Call(ctx, c, name, args...)
}

func count(ctx context.Context, controller attribute.Controller, _ ...any) (any, error) {
	_, total, err := controller.Search(ctx)
	if err != nil {
		return nil, err
	}

	return total, nil
}

/***** evaluation *****/

func matches(item attribute.Item, condition attribute.Condition) bool {
	switch c := condition.(type) {
	case attribute.Comparison:
		return compare(item, c)

	case attribute.Combination:
		if c.Combinator == attribute.CombineOr {
			return slices.ContainsFunc(c.Conditions, func(child attribute.Condition) bool {
				return matches(item, child)
			})
		}

		for _, child := range c.Conditions {
			if !matches(item, child) {
				return false
			}
		}
		return true

	case attribute.Negation:
		return !matches(item, c.Condition)

	default:
		return false
	}
}

func compare(item attribute.Item, c attribute.Comparison) bool {
	field := fieldValue(item, c.Key)

	if c.Operator == attribute.OpNotEqual {
		for _, value := range c.Values {
			if order, ok := orderOf(field, value); !ok || order == 0 {
				return false
			}
		}
		return true
	}

	return slices.ContainsFunc(c.Values, func(value any) bool {
		return compareOne(c.Operator, field, value)
	})
}

func compareOne(operator attribute.Operator, field, value any) bool {
	if operator.IsPattern() {
		f, fok := field.(string)
		v, vok := value.(string)
		if !fok || !vok {
			return false
		}

		if operator == attribute.OpStartsWith {
			return strings.HasPrefix(f, v)
		}
		return strings.Contains(f, v)
	}

	order, ok := orderOf(field, value)
	if !ok {
		return false
	}

	switch operator {
	case attribute.OpEqual:
		return order == 0
	case attribute.OpLess:
		return order < 0
	case attribute.OpLessOrEqual:
		return order <= 0
	case attribute.OpGreaterOrEqual:
		return order >= 0
	case attribute.OpGreater:
		return order > 0
	default:
		return false
	}
}

// orderOf compares two values of the same kind, returning false for mismatching kinds.
func orderOf(field, value any) (int, bool) {
	switch f := field.(type) {
	case string:
		v, ok := value.(string)
		return cmp.Compare(f, v), ok
	case int:
		v, ok := value.(int)
		return cmp.Compare(f, v), ok
	case time.Time:
		v, ok := value.(time.Time)
		return f.Compare(v), ok
	default:
		return 0, false
	}
}

func fieldValue(item attribute.Item, key attribute.KeyString) any {
	switch key {
	case attribute.KeyID:
		return item.ID
	case attribute.KeyCode:
		return item.Code
	case attribute.KeyDomain:
		return item.Domain
	case attribute.KeyType:
		return item.Type
	case attribute.KeyLabel:
		return item.Label
	case attribute.KeyPosition:
		return item.Position
	case attribute.KeyStatus:
		return item.Status
	case attribute.KeyCtime:
		return item.CreatedAt.UTC()
	case attribute.KeyMtime:
		return item.ModifiedAt.UTC()
	default:
		return nil
	}
}

// sortItems orders by the terms and then by ID, the same tie-breaker the postgres engine uses.
func sortItems(items attribute.Items, terms []attribute.SortTerm) {
	slices.SortStableFunc(items, func(a, b attribute.Item) int {
		for _, term := range terms {
			order, _ := orderOf(fieldValue(a, term.Key), fieldValue(b, term.Key))
			if order == 0 {
				continue
			}

			if term.Direction == attribute.SortDesc {
				return -order
			}
			return order
		}

		return strings.Compare(a.ID, b.ID)
	})
}

// Ensure Controller implements attribute.Controller and attribute.Extender.
var _ attribute.Controller = (*Controller)(nil)
var _ attribute.Extender = (*Controller)(nil)
