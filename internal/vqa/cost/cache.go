package cost

import (
	"strconv"
	"strings"
	"sync"
)

// Cache memoizes cost values by a fixed-precision key so that parameter
// vectors differing only in float noise below 1e-10 share an entry.
// Entries live as long as the cost function that owns the cache.
type Cache struct {
	mu     sync.Mutex
	values map[string]float64
	hits   int64
}

func NewCache() *Cache {
	return &Cache{values: make(map[string]float64)}
}

// Key renders params with ten decimals, comma separated.
func Key(params []float64) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(p, 'f', 10, 64))
	}
	return b.String()
}

func (c *Cache) Get(params []float64) (float64, bool) {
	key := Key(params)
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *Cache) Put(params []float64, v float64) {
	key := Key(params)
	c.mu.Lock()
	c.values[key] = v
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

// Hits returns how many lookups were answered from the cache.
func (c *Cache) Hits() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

// lookup returns the cached value for params or computes and stores it.
// Errors are not cached. Two workers may compute the same key concurrently;
// both store the same value.
func (c *Cache) lookup(params []float64, compute func() (float64, error)) (float64, error) {
	if v, ok := c.Get(params); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return 0, err
	}
	c.Put(params, v)
	return v, nil
}
