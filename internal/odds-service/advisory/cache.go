package advisory

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value Analysis
	at    time.Time
}

// Cache guarda análises por mercado com TTL. Ao passar de max entradas remove
// a mais antiga por horário de inserção.
type Cache struct {
	mu      sync.Mutex
	max     int
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func NewCache(max int, ttl time.Duration) *Cache {
	return &Cache{max: max, ttl: ttl, now: time.Now, entries: make(map[string]cacheEntry)}
}

func (c *Cache) Get(marketID string) (Analysis, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[marketID]
	if !ok {
		return Analysis{}, false
	}
	if c.now().Sub(e.at) >= c.ttl {
		delete(c.entries, marketID)
		return Analysis{}, false
	}
	return e.value, true
}

func (c *Cache) Set(marketID string, a Analysis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[marketID] = cacheEntry{value: a, at: c.now()}
	if len(c.entries) <= c.max {
		return
	}
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for k, e := range c.entries {
		if oldestKey == "" || e.at.Before(oldestAt) {
			oldestKey, oldestAt = k, e.at
		}
	}
	delete(c.entries, oldestKey)
}

// Delete remove um mercado; devolve false se não havia entrada.
func (c *Cache) Delete(marketID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[marketID]
	delete(c.entries, marketID)
	return ok
}

// Clear esvazia o cache e devolve quantas entradas havia.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return n
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
