package store

import (
	"context"
	"sync"
)

// InMemoryStore is a thread-safe Store implementation, used for tests and for
// ephemeral sessions.
type InMemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]string
	closed     bool
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		namespaces: map[string]map[string]string{},
	}
}

func (s *InMemoryStore) Get(_ context.Context, key string, namespace string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return "", false, err
	}

	ns, ok := s.namespaces[namespace]
	if !ok {
		return "", false, nil
	}
	v, ok := ns[key]
	return v, ok, nil
}

func (s *InMemoryStore) Set(_ context.Context, key string, value string, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = map[string]string{}
		s.namespaces[namespace] = ns
	}
	ns[key] = value
	return nil
}

// Keys returns the number of keys stored in a namespace.
func (s *InMemoryStore) Keys(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespace])
}

func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *InMemoryStore) ensureOpen() error {
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}
