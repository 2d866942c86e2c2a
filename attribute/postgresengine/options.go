package postgresengine

import (
	"fmt"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
)

// Option defines a functional option for configuring Controller.
type Option func(*Controller) error

// WithTableName sets the name of the attribute table.
func WithTableName(tableName string) Option {
	return func(c *Controller) error {
		if tableName == "" {
			return attribute.ErrEmptyTableName
		}

		c.tableName = tableName

		return nil
	}
}

// WithListTableName sets the name of the table holding the list references to other domains.
func WithListTableName(tableName string) Option {
	return func(c *Controller) error {
		if tableName == "" {
			return attribute.ErrEmptyTableName
		}

		c.listTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Controller.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Item counts, totals and durations of completed operations (production-safe)
// Warn level: Non-critical issues like cleanup failures and unknown attributes
// Error level: Critical failures that cause operation failures.
func WithLogger(logger attribute.Logger) Option {
	return func(c *Controller) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Controller.
// It receives the same messages as the Logger, together with the context,
// so trace and span IDs can be correlated automatically.
func WithContextualLogger(logger attribute.ContextualLogger) Option {
	return func(c *Controller) error {
		c.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Controller.
// It receives search/get/find durations, returned item counts and database errors.
func WithMetrics(collector attribute.MetricsCollector) Option {
	return func(c *Controller) error {
		c.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Controller.
// Every terminal operation runs in its own span.
func WithTracing(collector attribute.TracingCollector) Option {
	return func(c *Controller) error {
		c.tracingCollector = collector
		return nil
	}
}

// WithExtension registers an extension operation reachable via Call.
// The function receives the Controller, so it can read the accumulated criteria or run queries.
func WithExtension(name string, fn attribute.ExtensionFunc) Option {
	return func(c *Controller) error {
		if name == "" || fn == nil {
			return fmt.Errorf("%w: got name %q", attribute.ErrInvalidExtension, name)
		}

		c.extensions = c.extensions.With(name, fn)

		return nil
	}
}
