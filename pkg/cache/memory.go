package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// defaultMemoryTTL applies when Set is called without an expiration.
const defaultMemoryTTL = 7 * 24 * time.Hour

type memoryEntry struct {
	key      string
	value    interface{}
	expireAt time.Time
}

// MemoryCache implements Service in process with LRU eviction. Values are
// stored as given, not serialized.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front is most recently used
	maxSize int
	now     func() time.Time

	ticker    *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1
	}

	mc := &MemoryCache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: cfg.MaxSize,
		now:     time.Now,
		ticker:  time.NewTicker(cfg.CleanupInterval),
		done:    make(chan struct{}),
	}
	go mc.cleanupExpired()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = defaultMemoryTTL
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()

	expireAt := mc.now().Add(expiration)
	if el, ok := mc.items[key]; ok {
		e := el.Value.(*memoryEntry)
		e.value, e.expireAt = value, expireAt
		mc.order.MoveToFront(el)
		return nil
	}
	for mc.order.Len() >= mc.maxSize {
		mc.removeLocked(mc.order.Back())
	}
	mc.items[key] = mc.order.PushFront(&memoryEntry{key: key, value: value, expireAt: expireAt})
	return nil
}

// Get copies the stored value into dest. dest must point to a type the
// stored value is assignable to; other types go through a JSON round trip.
func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	el, ok := mc.items[key]
	if !ok {
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	e := el.Value.(*memoryEntry)
	if mc.now().After(e.expireAt) {
		mc.removeLocked(el)
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	mc.order.MoveToFront(el)
	value := e.value
	mc.mu.Unlock()

	return assign(dest, value)
}

func assign(dest, value interface{}) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return ErrInvalidDest
	}
	if value == nil {
		dv.Elem().Set(reflect.Zero(dv.Elem().Type()))
		return nil
	}
	vv := reflect.ValueOf(value)
	if vv.Type().AssignableTo(dv.Elem().Type()) {
		dv.Elem().Set(vv)
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %T: %w", value, err)
	}
	return json.Unmarshal(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		if el, ok := mc.items[key]; ok {
			mc.removeLocked(el)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.order.Len()
}

func (mc *MemoryCache) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	mc.order.Remove(el)
	delete(mc.items, el.Value.(*memoryEntry).key)
}

func (mc *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.ticker.C:
		}
		mc.mu.Lock()
		now := mc.now()
		for el := mc.order.Back(); el != nil; {
			prev := el.Prev()
			if now.After(el.Value.(*memoryEntry).expireAt) {
				mc.removeLocked(el)
			}
			el = prev
		}
		mc.mu.Unlock()
	}
}

// Close stops the cleanup goroutine.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() {
		mc.ticker.Stop()
		close(mc.done)
	})
	return nil
}
