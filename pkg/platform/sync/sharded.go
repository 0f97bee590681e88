package sync

import (
	"context"
	"sync"
)

const shardCount = 64

// ShardedMutex provides one lock per key. Keys are spread across N shards by
// hash so the bookkeeping map is not behind a single global mutex, but two
// distinct keys never block each other. Each key's lock is a one-slot channel
// so that acquisition can be abandoned when a context ends. Entries are
// reference counted and dropped once no holder or waiter remains.
type ShardedMutex struct {
	shards [shardCount]shard
}

type shard struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	slot chan struct{}
	refs int
}

// NewShardedMutex creates a new ShardedMutex with 64 shards.
func NewShardedMutex() *ShardedMutex {
	m := &ShardedMutex{}
	for i := range m.shards {
		m.shards[i].locks = make(map[string]*keyLock)
	}
	return m
}

// Lock acquires the lock for the given key.
func (m *ShardedMutex) Lock(key string) {
	kl := m.ref(key)
	kl.slot <- struct{}{}
}

// LockContext acquires the key's lock or returns ctx.Err() if the context
// ends first.
func (m *ShardedMutex) LockContext(ctx context.Context, key string) error {
	kl := m.ref(key)
	select {
	case kl.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.unref(key)
		return ctx.Err()
	}
}

// TryLock acquires the key's lock only if it is free.
func (m *ShardedMutex) TryLock(key string) bool {
	kl := m.ref(key)
	select {
	case kl.slot <- struct{}{}:
		return true
	default:
		m.unref(key)
		return false
	}
}

// Unlock releases the lock for the given key.
// Unlocking a key that is not held panics, as with sync.Mutex.
func (m *ShardedMutex) Unlock(key string) {
	s := &m.shards[m.shardFor(key)]
	s.mu.Lock()
	kl, ok := s.locks[key]
	s.mu.Unlock()
	if !ok {
		panic("sync: unlock of unlocked key")
	}
	select {
	case <-kl.slot:
	default:
		panic("sync: unlock of unlocked key")
	}
	m.unref(key)
}

// ref returns the key's lock, creating it if needed, and counts the caller.
func (m *ShardedMutex) ref(key string) *keyLock {
	s := &m.shards[m.shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	kl, ok := s.locks[key]
	if !ok {
		kl = &keyLock{slot: make(chan struct{}, 1)}
		s.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (m *ShardedMutex) unref(key string) {
	s := &m.shards[m.shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	kl, ok := s.locks[key]
	if !ok {
		return
	}
	kl.refs--
	if kl.refs <= 0 {
		delete(s.locks, key)
	}
}

// held reports how many keys currently have a holder or waiter.
func (m *ShardedMutex) held() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.locks)
		s.mu.Unlock()
	}
	return n
}

// shardFor returns the shard index for the given key.
// Empty keys default to shard 0.
func (m *ShardedMutex) shardFor(key string) int {
	if key == "" {
		return 0
	}
	return int(hashString(key) % uint32(len(m.shards)))
}

// hashString provides a simple hash for shard selection.
// Uses djb2-style hashing for good distribution.
func hashString(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}
