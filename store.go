package session

import (
	"sync"
	"time"

	"github.com/goliatone/go-errors"
)

// ErrKeyNotFound is returned by stores for absent or expired keys.
var ErrKeyNotFound = errors.New("key not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// Store is the injected key/value abstraction used wherever the layer
// needs process-lifetime caching (e.g. the resolver's verified-claims
// cache). It is always passed by reference from the composition root so
// tests can substitute an isolated instance; nothing in this package
// reaches for an ambient global.
type Store interface {
	Get(key string) (string, error)
	Set(key string, value string, expiration time.Duration) error
	Delete(key string) error
}

type memoryItem struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a mutex-guarded in-process Store with per-key TTL.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// MemoryStoreOption customizes a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryStoreClock injects a custom clock (useful for tests).
func WithMemoryStoreClock(clock func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		items: map[string]memoryItem{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return "", ErrKeyNotFound
	}

	if !item.expiresAt.IsZero() && s.now().After(item.expiresAt) {
		delete(s.items, key)
		return "", ErrKeyNotFound
	}

	return item.value, nil
}

func (s *MemoryStore) Set(key string, value string, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := memoryItem{value: value}
	if expiration > 0 {
		item.expiresAt = s.now().Add(expiration)
	}

	s.items[key] = item
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}
