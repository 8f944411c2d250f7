package visitor

import (
	"context"
	"strconv"
)

// Cache accelerates reads keyed by entity id or logical query name. It is
// never the source of truth: every mutation writes through to the store
// first and refreshes the cache afterward.
type Cache interface {
	// Get unmarshals the cached value into dest and reports whether the key
	// was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Put(ctx context.Context, key string, value any) error
	Evict(ctx context.Context, key string) error
}

const cacheKeyAllVisitors = "visitors"

func visitorCacheKey(id int64) string {
	return "visitor:" + strconv.FormatInt(id, 10)
}

// NopCache disables caching; used when Redis is not configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (NopCache) Put(context.Context, string, any) error         { return nil }
func (NopCache) Evict(context.Context, string) error            { return nil }
