package caching

import (
	"context"
	"strings"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
)

const (
	// CacheHitsMetric counts results served from the cache.
	CacheHitsMetric = "attribute_cache_hits_total"

	// CacheMissesMetric counts results fetched from the wrapped controller.
	CacheMissesMetric = "attribute_cache_misses_total"

	operationGet    = "get"
	operationFind   = "find"
	operationSearch = "search"

	labelOperation = "operation"

	logMsgCacheHit   = "attribute cache hit"
	logMsgCacheMiss  = "attribute cache miss"
	logAttrOperation = "operation"

	keySeparator = "\x1f"
)

// Wrapper serves terminal operations from a Cache and fills it from the wrapped controller.
type Wrapper struct {
	*attribute.Decorator
	cache            *Cache
	logger           attribute.Logger
	metricsCollector attribute.MetricsCollector
}

// Option defines a functional option for configuring Wrapper.
type Option func(*Wrapper) error

// WithLogger sets the logger receiving cache hits and misses at debug level.
func WithLogger(logger attribute.Logger) Option {
	return func(w *Wrapper) error {
		w.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector counting cache hits and misses.
func WithMetrics(collector attribute.MetricsCollector) Option {
	return func(w *Wrapper) error {
		w.metricsCollector = collector
		return nil
	}
}

// NewWrapper creates a caching decorator around the given controller.
// It fails with attribute.ErrTypeMismatch if controller is not an attribute.Controller.
func NewWrapper(controller any, cache *Cache, opts ...Option) (*Wrapper, error) {
	base, err := attribute.NewDecorator(controller)
	if err != nil {
		return nil, err
	}

	if cache == nil {
		return nil, ErrNilCache
	}

	w := &Wrapper{Decorator: base, cache: cache}
	w.Bind(w)

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// Get returns the cached attribute or fetches it from the wrapped controller.
func (w *Wrapper) Get(ctx context.Context, id string, domains ...string) (attribute.Item, error) {
	key := w.key(operationGet, append([]string{id}, domains...)...)

	if cached, ok := w.load(ctx, operationGet, key); ok && len(cached.items) == 1 {
		return cached.items[0], nil
	}

	item, err := w.Decorator.Get(ctx, id, domains...)
	if err != nil {
		return item, err
	}

	w.cache.store(key, entry{items: attribute.Items{item}})

	return item, nil
}

// Find returns the cached attribute or fetches it from the wrapped controller.
func (w *Wrapper) Find(ctx context.Context, code string, typ string, domains ...string) (attribute.Item, error) {
	key := w.key(operationFind, append([]string{code, typ}, domains...)...)

	if cached, ok := w.load(ctx, operationFind, key); ok && len(cached.items) == 1 {
		return cached.items[0], nil
	}

	item, err := w.Decorator.Find(ctx, code, typ, domains...)
	if err != nil {
		return item, err
	}

	w.cache.store(key, entry{items: attribute.Items{item}})

	return item, nil
}

// Search returns the cached result or runs the search on the wrapped controller.
func (w *Wrapper) Search(ctx context.Context, domains ...string) (attribute.Items, attribute.TotalCountUint, error) {
	key := w.key(operationSearch, domains...)

	if cached, ok := w.load(ctx, operationSearch, key); ok {
		return cached.items, cached.total, nil
	}

	items, total, err := w.Decorator.Search(ctx, domains...)
	if err != nil {
		return items, total, err
	}

	w.cache.store(key, entry{items: items, total: total})

	return items, total, nil
}

// Clone returns a Wrapper around a clone of the wrapped controller that shares the cache.
func (w *Wrapper) Clone() attribute.Controller {
	c := *w
	c.Decorator = w.CloneDecorator()
	c.Bind(&c)

	return &c
}

// key builds the cache key from the operation, the criteria and the arguments.
// The criteria are part of every key because wrapped controllers may apply them to Get and Find as well.
func (w *Wrapper) key(operation string, args ...string) string {
	parts := append([]string{operation, w.Criteria().Hash()}, args...)
	return strings.Join(parts, keySeparator)
}

func (w *Wrapper) load(ctx context.Context, operation, key string) (entry, bool) {
	cached, ok := w.cache.load(key)
	if !ok {
		w.count(ctx, CacheMissesMetric, operation)
		w.logDebug(logMsgCacheMiss, logAttrOperation, operation)

		return entry{}, false
	}

	w.count(ctx, CacheHitsMetric, operation)
	w.logDebug(logMsgCacheHit, logAttrOperation, operation)

	return cached, true
}

func (w *Wrapper) count(ctx context.Context, metric, operation string) {
	if w.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOperation: operation}

	if contextualCollector, ok := w.metricsCollector.(attribute.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	w.metricsCollector.IncrementCounter(metric, labels)
}

func (w *Wrapper) logDebug(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Debug(msg, args...)
	}
}

// Ensure Wrapper implements attribute.Controller and attribute.Extender.
var _ attribute.Controller = (*Wrapper)(nil)
var _ attribute.Extender = (*Wrapper)(nil)
