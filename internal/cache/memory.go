package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is the in-process Store used when no Redis URL is configured.
type Memory struct {
	c *gocache.Cache
}

type fieldSet struct {
	mu     sync.RWMutex
	fields map[string][]byte
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{c: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) GetField(_ context.Context, key, field string) ([]byte, bool, error) {
	x, found := m.c.Get(key)
	if !found {
		return nil, false, nil
	}
	set := x.(*fieldSet)
	set.mu.RLock()
	defer set.mu.RUnlock()
	v, ok := set.fields[field]
	return v, ok, nil
}

func (m *Memory) SetField(_ context.Context, key, field string, value []byte) error {
	// Add only succeeds for a new key; a concurrent writer that lost the race
	// falls through to the existing set.
	set := &fieldSet{fields: map[string][]byte{}}
	if err := m.c.Add(key, set, gocache.DefaultExpiration); err != nil {
		x, found := m.c.Get(key)
		if !found {
			m.c.Set(key, set, gocache.DefaultExpiration)
		} else {
			set = x.(*fieldSet)
		}
	}

	set.mu.Lock()
	set.fields[field] = value
	set.mu.Unlock()
	return nil
}

// Generation reads the counter Invalidate maintains next to key. Counters
// are stored without expiry.
func (m *Memory) Generation(_ context.Context, key string) (int64, error) {
	x, found := m.c.Get(generationKey(key))
	if !found {
		return 0, nil
	}
	return x.(int64), nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	gk := generationKey(key)
	if _, err := m.c.IncrementInt64(gk, 1); err != nil {
		// First invalidation. Add fails if a concurrent caller created the
		// counter meanwhile, in which case incrementing now succeeds.
		if err := m.c.Add(gk, int64(1), gocache.NoExpiration); err != nil {
			if _, err := m.c.IncrementInt64(gk, 1); err != nil {
				return fmt.Errorf("cache: bumping generation of %s: %w", key, err)
			}
		}
	}
	m.c.Delete(key)
	return nil
}
