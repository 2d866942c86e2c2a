package observable

import (
	"context"
	"time"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
)

// Wrapper instruments the terminal operations of the wrapped controller with metrics, tracing and logging.
// Results and errors of the wrapped controller are returned unchanged.
type Wrapper struct {
	*attribute.Decorator
	metricsCollector attribute.MetricsCollector
	tracingCollector attribute.TracingCollector
	contextualLogger attribute.ContextualLogger
	logger           attribute.Logger
}

// Option defines a functional option for configuring Wrapper.
type Option func(*Wrapper) error

// WithMetrics sets the metrics collector for the Wrapper.
func WithMetrics(collector attribute.MetricsCollector) Option {
	return func(w *Wrapper) error {
		w.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Wrapper.
func WithTracing(collector attribute.TracingCollector) Option {
	return func(w *Wrapper) error {
		w.tracingCollector = collector
		return nil
	}
}

// WithContextualLogging sets the contextual logger for the Wrapper.
func WithContextualLogging(logger attribute.ContextualLogger) Option {
	return func(w *Wrapper) error {
		w.contextualLogger = logger
		return nil
	}
}

// WithLogging sets the basic logger for the Wrapper, used when no contextual logger is set.
func WithLogging(logger attribute.Logger) Option {
	return func(w *Wrapper) error {
		w.logger = logger
		return nil
	}
}

// NewWrapper creates an observable decorator around the given controller.
// It fails with attribute.ErrTypeMismatch if controller is not an attribute.Controller.
func NewWrapper(controller any, opts ...Option) (*Wrapper, error) {
	base, err := attribute.NewDecorator(controller)
	if err != nil {
		return nil, err
	}

	w := &Wrapper{Decorator: base}
	w.Bind(w)

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// Get returns the attribute for the given ID and records the outcome.
func (w *Wrapper) Get(ctx context.Context, id string, domains ...string) (attribute.Item, error) {
	ctx, finish := w.observe(ctx, OperationGet)

	item, err := w.Decorator.Get(ctx, id, domains...)
	finish(err)

	return item, err
}

// Find returns the attribute for the given code and type and records the outcome.
func (w *Wrapper) Find(ctx context.Context, code string, typ string, domains ...string) (attribute.Item, error) {
	ctx, finish := w.observe(ctx, OperationFind)

	item, err := w.Decorator.Find(ctx, code, typ, domains...)
	finish(err)

	return item, err
}

// Search returns the matching attributes and their total and records the outcome.
func (w *Wrapper) Search(ctx context.Context, domains ...string) (attribute.Items, attribute.TotalCountUint, error) {
	ctx, finish := w.observe(ctx, OperationSearch)

	items, total, err := w.Decorator.Search(ctx, domains...)
	finish(err, LogAttrItemCount, len(items), LogAttrTotal, total)

	return items, total, err
}

// Clone returns an independent Wrapper with the same collectors around a clone of the wrapped controller.
func (w *Wrapper) Clone() attribute.Controller {
	c := *w
	c.Decorator = w.CloneDecorator()
	c.Bind(&c)

	return &c
}

// observe starts the instrumentation of one operation and returns the context to pass on
// and the function that records the outcome.
func (w *Wrapper) observe(ctx context.Context, operation string) (context.Context, func(err error, args ...any)) {
	start := time.Now()
	ctx, span := w.startSpan(ctx, operation)
	w.logInfo(ctx, LogMsgStarted, LogAttrOperation, operation)

	return ctx, func(err error, args ...any) {
		duration := time.Since(start)
		status := classify(err)

		w.recordMetrics(ctx, operation, status, duration)
		w.finishSpan(span, status, duration, err)

		if err != nil {
			w.logError(ctx, LogMsgFailed,
				LogAttrOperation, operation,
				LogAttrStatus, status,
				LogAttrError, err.Error())

			return
		}

		w.logInfo(ctx, LogMsgCompleted, append([]any{
			LogAttrOperation, operation,
			LogAttrStatus, status,
			LogAttrDurationMS, toMilliseconds(duration),
		}, args...)...)
	}
}

// Ensure Wrapper implements attribute.Controller and attribute.Extender.
var _ attribute.Controller = (*Wrapper)(nil)
var _ attribute.Extender = (*Wrapper)(nil)
