// Package helper provides test doubles and fixtures shared by the attribute test suites.
//
// It contains spies for the dependency-free observability interfaces (metrics, tracing,
// contextual logging), a slog.Handler spy for plain logging, and a small set of attribute
// items used across engine and decorator tests.
package helper
