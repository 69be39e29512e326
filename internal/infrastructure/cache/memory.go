package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a small in-process TTL key/value store. It backs the
// single-process deployments where Redis is not configured.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem)}
}

// Set stores a value; ttl <= 0 means no expiry
func (s *MemoryStore) Set(key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	s.items[key] = item
}

// Get returns the value and whether it exists and is unexpired
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return "", false
	}
	return item.value, true
}

// Delete removes a key
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// MemoryUsageCounter is an in-process fallback for the Redis usage counter.
type MemoryUsageCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryUsageCounter creates an empty counter
func NewMemoryUsageCounter() *MemoryUsageCounter {
	return &MemoryUsageCounter{counts: make(map[string]int)}
}

// GetUsage returns the count for an account in a month
func (c *MemoryUsageCounter) GetUsage(_ context.Context, accountID, month string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[usageKey(accountID, month)], nil
}

// IncrementUsage adds one to the count and returns the new value
func (c *MemoryUsageCounter) IncrementUsage(_ context.Context, accountID, month string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := usageKey(accountID, month)
	c.counts[key]++
	return c.counts[key], nil
}

// MemoryPollCursor is an in-process fallback for the Redis poll cursor.
type MemoryPollCursor struct {
	mu      sync.Mutex
	cursors map[string]time.Time
}

// NewMemoryPollCursor creates an empty cursor store
func NewMemoryPollCursor() *MemoryPollCursor {
	return &MemoryPollCursor{cursors: make(map[string]time.Time)}
}

// GetLastPoll returns the stored cursor, zero time when absent
func (c *MemoryPollCursor) GetLastPoll(_ context.Context, accountID string) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursors[accountID], nil
}

// SetLastPoll stores the cursor
func (c *MemoryPollCursor) SetLastPoll(_ context.Context, accountID string, t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursors[accountID] = t
	return nil
}
