package visibility

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
)

// DefaultMinStatus is the lowest visible status unless WithMinStatus is used.
const DefaultMinStatus = 1

// Wrapper restricts the terminal operations to attributes with a status of at least the minimum status.
//
// Search runs on a clone of the wrapped controller with the additional status condition,
// so the accumulated criteria of the caller stay as they are.
// Get and Find report hidden attributes as attribute.ErrNotFound.
type Wrapper struct {
	*attribute.Decorator
	minStatus int
}

// Option defines a functional option for configuring Wrapper.
type Option func(*Wrapper) error

// WithMinStatus sets the lowest visible status.
func WithMinStatus(status int) Option {
	return func(w *Wrapper) error {
		w.minStatus = status
		return nil
	}
}

// NewWrapper creates a visibility decorator around the given controller.
// It fails with attribute.ErrTypeMismatch if controller is not an attribute.Controller.
func NewWrapper(controller any, opts ...Option) (*Wrapper, error) {
	base, err := attribute.NewDecorator(controller)
	if err != nil {
		return nil, err
	}

	w := &Wrapper{Decorator: base, minStatus: DefaultMinStatus}
	w.Bind(w)

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// MinStatus returns the lowest visible status.
func (w *Wrapper) MinStatus() int {
	return w.minStatus
}

// Get returns the attribute for the given ID if it is visible.
func (w *Wrapper) Get(ctx context.Context, id string, domains ...string) (attribute.Item, error) {
	item, err := w.Decorator.Get(ctx, id, domains...)
	if err != nil {
		return item, err
	}

	if !w.visible(item) {
		return attribute.Item{}, fmt.Errorf("%w: id %q", attribute.ErrNotFound, id)
	}

	return item, nil
}

// Find returns the attribute for the given code and type if it is visible.
func (w *Wrapper) Find(ctx context.Context, code string, typ string, domains ...string) (attribute.Item, error) {
	item, err := w.Decorator.Find(ctx, code, typ, domains...)
	if err != nil {
		return item, err
	}

	if !w.visible(item) {
		return attribute.Item{}, fmt.Errorf("%w: code %q, type %q", attribute.ErrNotFound, code, typ)
	}

	return item, nil
}

// Search returns the visible attributes matching the accumulated criteria and their total.
func (w *Wrapper) Search(ctx context.Context, domains ...string) (attribute.Items, attribute.TotalCountUint, error) {
	restricted := w.Controller().Clone().Compare(attribute.OpGreaterOrEqual, attribute.KeyStatus, w.minStatus)

	return restricted.Search(ctx, domains...)
}

// Criteria returns the accumulated criteria including the status condition that Search adds.
func (w *Wrapper) Criteria() attribute.Criteria {
	return w.Controller().Criteria().WithComparison(attribute.OpGreaterOrEqual, attribute.KeyStatus, w.minStatus)
}

// Clone returns an independent Wrapper with the same minimum status.
func (w *Wrapper) Clone() attribute.Controller {
	c := *w
	c.Decorator = w.CloneDecorator()
	c.Bind(&c)

	return &c
}

func (w *Wrapper) visible(item attribute.Item) bool {
	return item.Status >= w.minStatus
}

// Ensure Wrapper implements attribute.Controller and attribute.Extender.
var _ attribute.Controller = (*Wrapper)(nil)
var _ attribute.Extender = (*Wrapper)(nil)
