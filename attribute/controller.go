package attribute

import (
	"context"
	"fmt"
)

// Controller is the fluent query builder for product attributes.
//
// The filter methods accumulate Criteria and return the Controller itself for chaining:
//
//	items, total, err := controller.
//		Domain("product").
//		Type("color", "size").
//		Compare(attribute.OpGreater, attribute.KeyStatus, 0).
//		Sort("position").
//		Slice(0, 48).
//		Search(ctx, attribute.DefaultDomains...)
//
// Get, Find and Search are terminal operations. Problems with the accumulated Criteria are
// reported by the terminal operations as ErrInvalidQuery.
//
// A Controller is meant to be used by one request at a time; use Clone for independent copies.
type Controller interface {
	// IDs adds attribute IDs for filtering.
	IDs(ids ...string) Controller

	// Compare adds a generic condition for filtering attributes.
	Compare(operator Operator, key KeyString, values ...any) Controller

	// Domain sets the domain of the attributes for filtering, e.g. "product".
	Domain(domain string) Controller

	// Parse parses the given condition tree and adds it to the list of conditions.
	Parse(conditions Conditions) Controller

	// Slice sets the start value and the number of returned attributes.
	Slice(start, limit int) Controller

	// Sort sets the sorting of the result list, see Criteria.WithSort.
	Sort(key string) Controller

	// Type adds attribute types for filtering.
	Type(codes ...string) Controller

	// Get returns the attribute for the given ID including the items of the given related domains.
	Get(ctx context.Context, id string, domains ...string) (Item, error)

	// Find returns the attribute for the given code and type including the items of the given related domains.
	Find(ctx context.Context, code string, typ string, domains ...string) (Item, error)

	// Search returns the attributes matching the accumulated Criteria and the total number of matches.
	Search(ctx context.Context, domains ...string) (Items, TotalCountUint, error)

	// Criteria returns the accumulated query state.
	Criteria() Criteria

	// Clone returns an independent copy; changes to the copy never affect the original.
	Clone() Controller
}

// Extender is implemented by controllers that offer operations beyond the Controller contract.
//
// Call returns ErrUnknownOperation for names it does not know.
type Extender interface {
	Call(ctx context.Context, name string, args ...any) (any, error)
}

// ExtensionFunc implements an extension operation of a controller.
type ExtensionFunc func(ctx context.Context, controller Controller, args ...any) (any, error)

// Extensions maps extension names to their implementations.
type Extensions map[string]ExtensionFunc

// Call runs the named extension with the given controller.
func (e Extensions) Call(ctx context.Context, controller Controller, name string, args ...any) (any, error) {
	fn, ok := e[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}

	return fn(ctx, controller, args...)
}

// With returns a copy of e including the named extension.
func (e Extensions) With(name string, fn ExtensionFunc) Extensions {
	c := make(Extensions, len(e)+1)
	for k, v := range e {
		c[k] = v
	}
	c[name] = fn

	return c
}
