package stages

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
)

// resultCache caches research results in-process with a TTL so repeated
// queries for the same content do not hit the search API again.
type resultCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func newResultCache(size int64, ttl time.Duration) (*resultCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * size,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating result cache")
	}
	return &resultCache{cache: c, ttl: ttl}, nil
}

func (rc *resultCache) Get(key string) (map[string]interface{}, bool) {
	v, ok := rc.cache.Get(key)
	if !ok {
		return nil, false
	}
	out, ok := v.(map[string]interface{})
	return out, ok
}

func (rc *resultCache) Set(key string, value map[string]interface{}) {
	rc.cache.SetWithTTL(key, value, 1, rc.ttl)
	rc.cache.Wait()
}

func (rc *resultCache) Close() {
	rc.cache.Close()
}
