package cache

import (
	"sync"
	"time"
)

type entry struct {
	v   []byte
	exp time.Time
}

// TTLCache is an in-process BytesCache bounded by TTL and entry count.
type TTLCache struct {
	mu  sync.RWMutex
	m   map[string]entry
	max int
}

// NewTTLCache creates a cache holding at most max entries; max <= 0 means
// no size bound.
func NewTTLCache(max int) *TTLCache {
	return &TTLCache{m: make(map[string]entry), max: max}
}

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.v, true, nil
}

func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	if c.max > 0 && len(c.m) >= c.max {
		c.evictLocked()
	}
	c.m[key] = entry{v: value, exp: exp}
	c.mu.Unlock()
	return nil
}

// evictLocked drops expired entries, then the soonest-expiring one if the
// cache is still full.
func (c *TTLCache) evictLocked() {
	now := time.Now()
	for k, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, k)
		}
	}
	if c.max <= 0 || len(c.m) < c.max {
		return
	}
	var victim string
	var soonest time.Time
	for k, e := range c.m {
		if victim == "" || (!e.exp.IsZero() && e.exp.Before(soonest)) {
			victim = k
			soonest = e.exp
		}
	}
	delete(c.m, victim)
}
