// Package memoryengine provides an in-memory implementation of attribute.Controller.
//
// It evaluates the accumulated attribute.Criteria over a fixed set of items, which makes it
// useful for tests, fixtures, and small catalogs that are loaded once at startup.
//
//	controller, _ := memoryengine.NewController(items)
//	found, total, err := controller.Type("color").Sort("position").Search(ctx, "text")
package memoryengine
