// Package decorators holds attribute.Controller decorators built on attribute.Decorator.
//
// Each subpackage adds one concern and can be stacked in any order:
//
//	controller, _ := postgresengine.NewControllerFromPGXPool(pool)
//	visible, _ := visibility.NewWrapper(controller, visibility.WithMinStatus(1))
//	cached, _ := caching.NewWrapper(visible, cache)
//	observed, _ := observable.NewWrapper(cached, observable.WithContextualLogging(logger))
//
//	items, total, err := observed.Domain("product").Type("color").Search(ctx, attribute.DefaultDomains...)
package decorators
