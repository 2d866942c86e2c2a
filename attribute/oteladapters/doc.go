// Package oteladapters provides OpenTelemetry implementations of the attribute observability interfaces,
// so controllers and decorators can report to OpenTelemetry without implementing the interfaces themselves.
//
//	meter := otel.Meter("attributes")
//	tracer := otel.Tracer("attributes")
//	logger := oteladapters.NewSlogBridgeLogger("attributes")
//
//	controller, err := postgresengine.NewControllerFromPGXPool(pool,
//		postgresengine.WithMetrics(oteladapters.NewMetricsCollector(meter)),
//		postgresengine.WithTracing(oteladapters.NewTracingCollector(tracer)),
//		postgresengine.WithContextualLogger(logger),
//	)
package oteladapters
