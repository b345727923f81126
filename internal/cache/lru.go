package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU evicts by entry count and, when a weigher is set, by total weight.
// Entries older than ttl are dropped on read or by CleanExpired.
type LRU[T any] struct {
	mu         sync.Mutex
	maxEntries int
	maxWeight  int64
	weight     int64
	ttl        time.Duration
	weigh      func(T) int64
	items      map[string]*list.Element
	order      *list.List
	now        func() time.Time
}

type entry[T any] struct {
	key       string
	value     T
	weight    int64
	expiresAt time.Time
}

// Option configures an LRU.
type Option[T any] func(*LRU[T])

// WithMaxWeight caps the summed weight of all entries. Values heavier than
// the cap are never stored.
func WithMaxWeight[T any](max int64, weigh func(T) int64) Option[T] {
	return func(c *LRU[T]) {
		c.maxWeight = max
		c.weigh = weigh
	}
}

func NewLRU[T any](maxEntries int, ttl time.Duration, opts ...Option[T]) *LRU[T] {
	c := &LRU[T]{
		maxEntries: maxEntries,
		ttl:        ttl,
		items:      make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if c.ttl > 0 && c.now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *LRU[T]) Set(key string, value T) {
	if c.maxEntries <= 0 {
		return
	}
	var w int64
	if c.weigh != nil {
		w = c.weigh(value)
		if c.maxWeight > 0 && w > c.maxWeight {
			c.Delete(key)
			return
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, weight: w, expiresAt: c.now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		c.weight -= elem.Value.(*entry[T]).weight
		elem.Value = e
		c.order.MoveToFront(elem)
	} else {
		c.items[key] = c.order.PushFront(e)
	}
	c.weight += w

	for c.order.Len() > c.maxEntries || (c.maxWeight > 0 && c.weight > c.maxWeight) {
		c.remove(c.order.Back())
	}
}

func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

func (c *LRU[T]) remove(elem *list.Element) {
	e := elem.Value.(*entry[T])
	delete(c.items, e.key)
	c.weight -= e.weight
	c.order.Remove(elem)
}

// CleanExpired drops expired entries and reports how many were removed.
func (c *LRU[T]) CleanExpired() int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*entry[T]).expiresAt) {
			c.remove(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Weight is the summed weight of the cached entries.
func (c *LRU[T]) Weight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}
