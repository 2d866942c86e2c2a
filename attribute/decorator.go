package attribute

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// Decorator is the base for attribute controller decorators.
//
// It passes every operation to the wrapped Controller. Filter methods return the decorator
// itself, terminal operations return exactly what the wrapped controller returns.
//
// Concrete decorators embed *Decorator, override the operations they want to extend,
// and call Bind with themselves so that chained calls keep returning the outermost layer:
//
//	type Logging struct {
//		*attribute.Decorator
//	}
//
//	func NewLogging(controller attribute.Controller) (*Logging, error) {
//		base, err := attribute.NewDecorator(controller)
//		if err != nil {
//			return nil, err
//		}
//
//		l := &Logging{Decorator: base}
//		l.Bind(l)
//
//		return l, nil
//	}
type Decorator struct {
	controller Controller
	self       Controller
}

// NewDecorator wraps the given controller.
//
// It fails with ErrTypeMismatch if controller does not implement Controller or is a nil value.
func NewDecorator(controller any) (*Decorator, error) {
	c, ok := controller.(Controller)
	if !ok || isNilValue(c) {
		return nil, fmt.Errorf("%w: got %T", ErrTypeMismatch, controller)
	}

	d := &Decorator{controller: c}
	d.self = d

	return d, nil
}

// Bind sets the Controller that filter methods return, usually the decorator embedding d.
func (d *Decorator) Bind(self Controller) {
	d.self = self
}

// Controller returns the wrapped controller.
func (d *Decorator) Controller() Controller {
	return d.controller
}

// IDs adds attribute IDs for filtering.
func (d *Decorator) IDs(ids ...string) Controller {
	d.controller.IDs(ids...)
	return d.self
}

// Compare adds a generic condition for filtering attributes.
func (d *Decorator) Compare(operator Operator, key KeyString, values ...any) Controller {
	d.controller.Compare(operator, key, values...)
	return d.self
}

// Domain sets the domain of the attributes for filtering.
func (d *Decorator) Domain(domain string) Controller {
	d.controller.Domain(domain)
	return d.self
}

// Parse parses the given condition tree and adds it to the list of conditions.
func (d *Decorator) Parse(conditions Conditions) Controller {
	d.controller.Parse(conditions)
	return d.self
}

// Slice sets the start value and the number of returned attributes.
func (d *Decorator) Slice(start, limit int) Controller {
	d.controller.Slice(start, limit)
	return d.self
}

// Sort sets the sorting of the result list.
func (d *Decorator) Sort(key string) Controller {
	d.controller.Sort(key)
	return d.self
}

// Type adds attribute types for filtering.
func (d *Decorator) Type(codes ...string) Controller {
	d.controller.Type(codes...)
	return d.self
}

// Get returns the attribute for the given ID.
func (d *Decorator) Get(ctx context.Context, id string, domains ...string) (Item, error) {
	return d.controller.Get(ctx, id, domains...)
}

// Find returns the attribute for the given code and type.
func (d *Decorator) Find(ctx context.Context, code string, typ string, domains ...string) (Item, error) {
	return d.controller.Find(ctx, code, typ, domains...)
}

// Search returns the attributes filtered by the accumulated Criteria and the total number of matches.
func (d *Decorator) Search(ctx context.Context, domains ...string) (Items, TotalCountUint, error) {
	return d.controller.Search(ctx, domains...)
}

// Criteria returns the accumulated query state of the wrapped controller.
func (d *Decorator) Criteria() Criteria {
	return d.controller.Criteria()
}

// Clone returns a decorator wrapping an independent copy of the wrapped controller.
//
// Decorators embedding *Decorator must override Clone, otherwise the copy loses their layer.
func (d *Decorator) Clone() Controller {
	return d.CloneDecorator()
}

// CloneDecorator returns a new Decorator wrapping a clone of the wrapped controller.
// The clone is bound to itself; embedding decorators rebind it with Bind.
func (d *Decorator) CloneDecorator() *Decorator {
	c := &Decorator{controller: d.controller.Clone()}
	c.self = c

	return c
}

// Call passes operations that are not part of the Controller contract to the wrapped controller.
//
// If the wrapped controller is not an Extender or does not know the operation,
// Call returns nil and no error. Errors of known operations are returned unchanged.
func (d *Decorator) Call(ctx context.Context, name string, args ...any) (any, error) {
	extender, ok := d.controller.(Extender)
	if !ok {
		return nil, nil
	}

	result, err := extender.Call(ctx, name, args...)
	if errors.Is(err, ErrUnknownOperation) {
		return nil, nil
	}

	return result, err
}

func isNilValue(c Controller) bool {
	if c == nil {
		return true
	}

	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

// Ensure Decorator implements Controller and Extender.
var _ Controller = (*Decorator)(nil)
var _ Extender = (*Decorator)(nil)
