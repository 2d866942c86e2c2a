// Package caching provides an attribute.Controller decorator that keeps the results of
// Get, Find and Search in a shared LRU cache.
//
// Results are keyed by the operation, the hash of the accumulated criteria and the arguments.
// The cache stores deep copies, so callers can modify returned items freely.
// Failed operations are never cached.
package caching
