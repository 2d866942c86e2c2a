// Package observable provides an attribute.Controller decorator that records logs,
// metrics and tracing spans around the terminal operations Get, Find and Search.
//
// Outcomes are classified as success, not_found, canceled, timeout or error.
// Filter operations are passed through unchanged.
package observable
