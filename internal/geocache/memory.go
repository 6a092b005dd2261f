package geocache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

type entry struct {
	value     []byte
	expiresAt time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]entry
}

// MemoryStore is a process-local Store. Keys are spread over independently
// locked shards so lookups on different keys rarely contend.
type MemoryStore struct {
	shards [shardCount]*shard
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]entry)}
	}
	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, key string, now time.Time) ([]byte, bool, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.After(now) {
		delete(sh.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, key string, value []byte, expiresAt time.Time) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	sh.entries[key] = entry{value: value, expiresAt: expiresAt}
	sh.mu.Unlock()
	return nil
}
