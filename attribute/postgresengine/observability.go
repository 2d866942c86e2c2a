package postgresengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
)

const (
	metricSearchDuration = "attribute_search_duration_seconds"
	metricItemsReturned  = "attribute_items_returned"
	metricDatabaseErrors = "attribute_database_errors_total"

	spanNamePrefix = "attribute."

	operationSearch = "search"
	operationGet    = "get"
	operationFind   = "find"

	statusSuccess = "success"
	statusError   = "error"

	errorTypeInvalidQuery  = "invalid_query"
	errorTypeBuildQuery    = "build_query"
	errorTypeDatabaseQuery = "database_query"
	errorTypeRowScan       = "row_scan"
	errorTypeNotFound      = "not_found"

	labelOperation = "operation"
	labelStatus    = "status"
	labelErrorType = "error_type"

	spanAttrOperation  = "operation"
	spanAttrItemCount  = "item_count"
	spanAttrErrorType  = "error_type"
	spanAttrDurationMS = "duration_ms"
	spanAttrCriteria   = "criteria_hash"
)

// === Logging ===
// Every message goes to the contextual logger and to the plain logger, whichever are configured.

// logQueryWithDuration logs SQL queries with execution time at debug level.
func (c *Controller) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	if c.contextualLogger != nil {
		c.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}

	if c.logger != nil {
		c.logger.Debug(logMsgSQLExecuted+action, args...)
	}
}

// logOperation logs operational information at info level.
func (c *Controller) logOperation(ctx context.Context, action string, args ...any) {
	if c.contextualLogger != nil {
		c.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}

	if c.logger != nil {
		c.logger.Info(logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical issues at warn level.
func (c *Controller) logWarn(ctx context.Context, message string, args ...any) {
	if c.contextualLogger != nil {
		c.contextualLogger.WarnContext(ctx, message, args...)
	}

	if c.logger != nil {
		c.logger.Warn(message, args...)
	}
}

// logError logs failures at error level.
func (c *Controller) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if c.contextualLogger != nil {
		c.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}

	if c.logger != nil {
		c.logger.Error(message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// === Metrics Observer ===

// metricsObserver encapsulates the metrics collection for one terminal operation.
type metricsObserver struct {
	c         *Controller
	ctx       context.Context
	operation string
}

func (c *Controller) startMetrics(ctx context.Context, operation string) *metricsObserver {
	return &metricsObserver{c: c, ctx: ctx, operation: operation}
}

// recordSuccess records the duration and the number of returned items.
func (mo *metricsObserver) recordSuccess(itemCount int, duration time.Duration) {
	mo.recordDuration(duration, statusSuccess)
	mo.recordValue(metricItemsReturned, float64(itemCount), statusSuccess)
}

// recordError records the duration and counts the error by type.
func (mo *metricsObserver) recordError(errorType string, duration time.Duration) {
	mo.recordDuration(duration, statusError)

	if mo.c.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelOperation: mo.operation,
		labelStatus:    statusError,
		labelErrorType: errorType,
	}

	if contextual, ok := mo.c.metricsCollector.(attribute.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(mo.ctx, metricDatabaseErrors, labels)
		return
	}

	mo.c.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
}

func (mo *metricsObserver) recordDuration(duration time.Duration, status string) {
	if mo.c.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOperation: mo.operation, labelStatus: status}

	if contextual, ok := mo.c.metricsCollector.(attribute.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(mo.ctx, metricSearchDuration, duration, labels)
		return
	}

	mo.c.metricsCollector.RecordDuration(metricSearchDuration, duration, labels)
}

func (mo *metricsObserver) recordValue(metric string, value float64, status string) {
	if mo.c.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOperation: mo.operation, labelStatus: status}

	if contextual, ok := mo.c.metricsCollector.(attribute.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(mo.ctx, metric, value, labels)
		return
	}

	mo.c.metricsCollector.RecordValue(metric, value, labels)
}

// === Tracing Observer ===

// tracingObserver encapsulates the span lifecycle of one terminal operation.
type tracingObserver struct {
	c    *Controller
	span attribute.SpanContext
}

func (c *Controller) startTracing(ctx context.Context, operation string) (*tracingObserver, context.Context) {
	if c.tracingCollector == nil {
		return &tracingObserver{c: c}, ctx
	}

	newCtx, span := c.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
		spanAttrOperation: operation,
		spanAttrCriteria:  c.criteria.Hash(),
	})

	return &tracingObserver{c: c, span: span}, newCtx
}

// finishSuccess completes the span with the number of returned items.
func (to *tracingObserver) finishSuccess(itemCount int, duration time.Duration) {
	if to.span == nil {
		return
	}

	to.span.SetStatus(statusSuccess)
	to.span.AddAttribute(spanAttrDurationMS, formatDuration(duration))

	to.c.tracingCollector.FinishSpan(to.span, statusSuccess, map[string]string{
		spanAttrItemCount: fmt.Sprintf("%d", itemCount),
	})
}

// finishError completes the span with the error type.
func (to *tracingObserver) finishError(errorType string, duration time.Duration) {
	if to.span == nil {
		return
	}

	to.span.SetStatus(statusError)
	to.span.AddAttribute(spanAttrErrorType, errorType)
	to.span.AddAttribute(spanAttrDurationMS, formatDuration(duration))

	to.c.tracingCollector.FinishSpan(to.span, statusError, map[string]string{
		spanAttrErrorType: errorType,
	})
}

func formatDuration(duration time.Duration) string {
	return fmt.Sprintf("%.2f", toMilliseconds(duration))
}
