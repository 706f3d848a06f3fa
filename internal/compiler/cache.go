package compiler

import (
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes transpilation results by a content hash of the source and
// the options that affect output. Concurrent requests for the same key run
// the pipeline once. Cached results are shared and must not be modified.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Result
	sf      singleflight.Group

	hits, misses int
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Result)}
}

// CacheKey hashes source together with the output-relevant options.
// The tracer is not part of the key.
func CacheKey(source string, opts Options) string {
	h := sha3.New256()
	fmt.Fprintf(h, "mode=%d\x00int=%s\x00module=%s\x00manifest=%t\x00", opts.Mode, opts.IntWidth, opts.moduleName(), opts.EmitManifest)
	pins := make([]string, 0, len(opts.CrateVersions))
	for name := range opts.CrateVersions {
		pins = append(pins, name)
	}
	sort.Strings(pins)
	for _, name := range pins {
		fmt.Fprintf(h, "pin=%s@%s\x00", name, opts.CrateVersions[name])
	}
	_, _ = h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// Transpile returns the cached result for (source, opts), running the
// pipeline on a miss.
func (c *Cache) Transpile(source string, opts Options) *Result {
	key := CacheKey(source, opts)

	c.mu.RLock()
	if res, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return res
	}
	c.mu.RUnlock()

	v, _, _ := c.sf.Do(key, func() (any, error) {
		c.mu.RLock()
		res, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return res, nil
		}
		res = Transpile(source, opts)
		c.mu.Lock()
		c.entries[key] = res
		c.misses++
		c.mu.Unlock()
		return res, nil
	})
	return v.(*Result)
}

// Len returns the number of cached results
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Forget drops the entry for (source, opts)
func (c *Cache) Forget(source string, opts Options) {
	key := CacheKey(source, opts)
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.sf.Forget(key)
}
