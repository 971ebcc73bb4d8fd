package pipeline

import (
	"encoding/json"
	"path/filepath"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dgallion1/nbtoc/internal/augment"
)

// ResultCache keeps recently augmented pages keyed by content and options.
// A nil *ResultCache is a valid, always-missing cache.
type ResultCache struct {
	lru    *lru.Cache[string, *augment.Result]
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats is a point-in-time view of cache usage.
type CacheStats struct {
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// NewResultCache returns a cache holding up to size results, or nil when
// size is not positive.
func NewResultCache(size int) (*ResultCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[string, *augment.Result](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{lru: c}, nil
}

func (c *ResultCache) Get(key string) (*augment.Result, bool) {
	if c == nil {
		return nil, false
	}
	res, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return res, ok
}

func (c *ResultCache) Add(key string, res *augment.Result) {
	if c == nil {
		return
	}
	c.lru.Add(key, res)
}

func (c *ResultCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	return CacheStats{Size: c.lru.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// CacheKey identifies a conversion: the same bytes under the same file name
// and options always produce the same page. The name is part of the key
// because converted pages take their title from it.
func CacheKey(contentHash, filename string, opts augment.Options) string {
	o, _ := json.Marshal(opts)
	return contentHash + "|" + filepath.Base(filename) + "|" + ContentHashHex(o)
}
