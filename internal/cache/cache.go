package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Generation identifies the cache contents between two Clear calls.
type Generation string

// Cache holds serialized responses keyed by request shape. Misses and backend
// errors look the same to callers: the value is simply recomputed.
//
// Get reports the generation current at lookup time, even on a miss. Set only
// stores under that generation, so a value computed before a Clear is never
// served after it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, Generation, bool)
	Set(ctx context.Context, gen Generation, key string, val []byte)
	Clear(ctx context.Context)
}

type Memory struct {
	mu    sync.RWMutex
	ttl   time.Duration
	m     map[string]entry
	epoch uint64
	now   func() time.Time
}

type entry struct {
	val []byte
	exp time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Memory{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (c *Memory) generation() Generation {
	return Generation(strconv.FormatUint(c.epoch, 10))
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, Generation, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	gen := c.generation()
	c.mu.RUnlock()
	if !ok {
		return nil, gen, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		if cur, ok := c.m[key]; ok && now.After(cur.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return nil, gen, false
	}

	return e.val, gen, true
}

func (c *Memory) Set(_ context.Context, gen Generation, key string, val []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation() {
		return
	}

	c.m[key] = entry{val: val, exp: c.now().Add(c.ttl)}
}

func (c *Memory) Clear(_ context.Context) {
	c.mu.Lock()
	c.epoch++
	c.m = make(map[string]entry)
	c.mu.Unlock()
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, Generation, bool) { return nil, "", false }
func (Nop) Set(context.Context, Generation, string, []byte)        {}
func (Nop) Clear(context.Context)                                  {}
