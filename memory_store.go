package edgesession

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value string

	// expiry is a unix nano timestamp, 0 means never.
	expiry int64
}

func (e memoryEntry) expired(now time.Time) bool {
	return e.expiry != 0 && e.expiry <= now.UnixNano()
}

// MemoryStore is an in-process Store. Expired entries are invisible to
// readers immediately and removed by a background gc.
type MemoryStore struct {
	mutex      sync.RWMutex
	entries    map[string]memoryEntry
	gcInterval time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewMemoryStore creates and returns a new MemoryStore. Call Close to stop
// its gc.
func NewMemoryStore(options ...func(*MemoryStore)) *MemoryStore {
	s := &MemoryStore{
		entries:    make(map[string]memoryEntry),
		gcInterval: 500 * time.Millisecond,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	for _, op := range options {
		op(s)
	}
	go s.gc()
	return s
}

// WithGCInterval sets how often expired entries are swept.
func WithGCInterval(interval time.Duration) func(*MemoryStore) {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.gcInterval = interval
		}
	}
}

// WithMemoryClock replaces time.Now for expiry checks.
func WithMemoryClock(now func() time.Time) func(*MemoryStore) {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mutex.RLock()
	e, ok := s.entries[key]
	s.mutex.RUnlock()
	if !ok || e.expired(s.now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiry = s.now().Add(ttl).UnixNano()
	}
	s.mutex.Lock()
	s.entries[key] = e
	s.mutex.Unlock()
	return nil
}

func (s *MemoryStore) Del(_ context.Context, key string) error {
	s.mutex.Lock()
	delete(s.entries, key)
	s.mutex.Unlock()
	return nil
}

func (s *MemoryStore) DelAll(_ context.Context, prefix string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	return nil
}

// Take reads and deletes key under one lock.
func (s *MemoryStore) Take(_ context.Context, key string) (string, bool, error) {
	s.mutex.Lock()
	e, ok := s.entries[key]
	delete(s.entries, key)
	s.mutex.Unlock()
	if !ok || e.expired(s.now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Len returns the number of entries, expired or not, still held.
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}

// Close stops the gc. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

// Adopted from: https://github.com/gofiber/storage/blob/main/memory/memory.go
func (s *MemoryStore) gc() {
	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.now()
	s.mutex.Lock()
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
		}
	}
	s.mutex.Unlock()
}
