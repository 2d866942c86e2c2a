package observable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
)

const (
	// ControllerDurationMetric tracks the duration of terminal operations (OpenTelemetry-compatible).
	ControllerDurationMetric = "attributecontroller_duration_seconds"

	// ControllerCallsMetric tracks the total number of terminal operations.
	ControllerCallsMetric = "attributecontroller_calls_total"

	// ControllerCanceledMetric tracks canceled terminal operations.
	ControllerCanceledMetric = "attributecontroller_canceled_operations_total"

	// ControllerTimeoutMetric tracks terminal operations that ran into a deadline.
	ControllerTimeoutMetric = "attributecontroller_timeout_operations_total"

	// SpanNamePrefix prefixes the span names, e.g. "attributecontroller.search".
	SpanNamePrefix = "attributecontroller."

	OperationGet    = "get"
	OperationFind   = "find"
	OperationSearch = "search"

	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusError    = "error"
	StatusCanceled = "canceled"
	StatusTimeout  = "timeout"

	LogMsgStarted   = "attribute controller started"
	LogMsgCompleted = "attribute controller completed"
	LogMsgFailed    = "attribute controller failed"

	LogAttrOperation  = "operation"
	LogAttrStatus     = "status"
	LogAttrDurationMS = "duration_ms"
	LogAttrItemCount  = "item_count"
	LogAttrTotal      = "total"
	LogAttrError      = "error"
	LogAttrCriteria   = "criteria_hash"
)

// classify maps the result of a terminal operation to a status.
func classify(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, attribute.ErrNotFound):
		return StatusNotFound
	default:
		return StatusError
	}
}

func buildLabels(operation, status string) map[string]string {
	return map[string]string{
		LogAttrOperation: operation,
		LogAttrStatus:    status,
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with precision.
func toMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

func formatDurationMS(duration time.Duration) string {
	return fmt.Sprintf("%.2f", toMilliseconds(duration))
}

// recordMetrics records the duration and the call of one operation, plus the canceled and timeout counters.
func (w *Wrapper) recordMetrics(ctx context.Context, operation, status string, duration time.Duration) {
	if w.metricsCollector == nil {
		return
	}

	labels := buildLabels(operation, status)
	w.recordDuration(ctx, ControllerDurationMetric, duration, labels)
	w.incrementCounter(ctx, ControllerCallsMetric, labels)

	switch status {
	case StatusCanceled:
		w.incrementCounter(ctx, ControllerCanceledMetric, buildLabels(operation, status))
	case StatusTimeout:
		w.incrementCounter(ctx, ControllerTimeoutMetric, buildLabels(operation, status))
	}
}

func (w *Wrapper) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if contextualCollector, ok := w.metricsCollector.(attribute.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	w.metricsCollector.RecordDuration(metric, duration, labels)
}

func (w *Wrapper) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if contextualCollector, ok := w.metricsCollector.(attribute.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	w.metricsCollector.IncrementCounter(metric, labels)
}

// startSpan starts a span for the operation.
// Returns the original context and nil if tracing is disabled.
func (w *Wrapper) startSpan(ctx context.Context, operation string) (context.Context, attribute.SpanContext) {
	if w.tracingCollector == nil {
		return ctx, nil
	}

	return w.tracingCollector.StartSpan(ctx, SpanNamePrefix+operation, map[string]string{
		LogAttrOperation: operation,
		LogAttrCriteria:  w.Criteria().Hash(),
	})
}

func (w *Wrapper) finishSpan(span attribute.SpanContext, status string, duration time.Duration, err error) {
	if w.tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: formatDurationMS(duration),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	w.tracingCollector.FinishSpan(span, status, attrs)
}

// The contextual logger wins; the plain logger is the fallback.

func (w *Wrapper) logInfo(ctx context.Context, msg string, args ...any) {
	if w.contextualLogger != nil {
		w.contextualLogger.InfoContext(ctx, msg, args...)
	} else if w.logger != nil {
		w.logger.Info(msg, args...)
	}
}

func (w *Wrapper) logError(ctx context.Context, msg string, args ...any) {
	if w.contextualLogger != nil {
		w.contextualLogger.ErrorContext(ctx, msg, args...)
	} else if w.logger != nil {
		w.logger.Error(msg, args...)
	}
}
