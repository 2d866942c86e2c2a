// Package attribute provides the query controller abstraction for product attributes
// and the base for controller decorators.
//
// A Controller accumulates filters (IDs, domain, types, generic comparisons, parsed
// condition trees), pagination and sorting in Criteria and executes them with one of the
// terminal operations Get, Find or Search. Concrete controllers live in the engine packages:
//   - memoryengine: evaluates the Criteria over an in-memory item set
//   - postgresengine: translates the Criteria into SQL
//
// Decorator forwards the whole contract to a wrapped controller, so cross-cutting behavior
// (observability, caching, visibility rules) can be layered without re-implementing it:
//
//	base, _ := postgresengine.NewControllerFromPGXPool(pool)
//	visible, _ := visibility.NewWrapper(base)
//	cached, _ := caching.NewWrapper(visible, cache)
//
//	items, total, err := cached.
//		Domain("product").
//		Type("color").
//		Sort("position").
//		Slice(0, 48).
//		Search(ctx, attribute.DefaultDomains...)
//
// Condition trees use the operators ==, !=, <, <=, >=, >, =~ (starts with), ~= (contains)
// and the combinators && (and), || (or), ! (not):
//
//	controller.Parse(attribute.Conditions{"&&": []any{
//		attribute.Conditions{">": attribute.Conditions{"attribute.status": 0}},
//		attribute.Conditions{"==": attribute.Conditions{"attribute.type": "color"}},
//	}})
package attribute
