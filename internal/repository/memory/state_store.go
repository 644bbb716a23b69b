// Package memory provides an in-process StateStore used by tests and by
// single-node deployments that run without Redis.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/agrisense/gatekeeper/internal/core/port"
)

// StateStore is a mutex-guarded map with subscriber fan-out.
type StateStore struct {
	mu          sync.RWMutex
	values      map[string]string
	subscribers map[int]chan port.KeyChange
	nextSub     int
}

// NewStateStore constructs an empty in-memory store.
func NewStateStore() *StateStore {
	return &StateStore{
		values:      make(map[string]string),
		subscribers: make(map[int]chan port.KeyChange),
	}
}

// Get returns the value for key.
func (s *StateStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

// Set stores the value and notifies subscribers.
func (s *StateStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()

	s.notify(key)
	return nil
}

// Delete removes the key and notifies subscribers.
func (s *StateStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()

	s.notify(key)
	return nil
}

// List returns a copy of all entries whose key starts with prefix.
func (s *StateStore) List(_ context.Context, prefix string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make(map[string]string)
	for key, value := range s.values {
		if strings.HasPrefix(key, prefix) {
			entries[key] = value
		}
	}
	return entries, nil
}

// Subscribe returns a change feed that closes when ctx is cancelled.
func (s *StateStore) Subscribe(ctx context.Context) (<-chan port.KeyChange, error) {
	ch := make(chan port.KeyChange, 16)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// notify never blocks a writer; a full subscriber simply misses the change.
func (s *StateStore) notify(key string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- port.KeyChange{Key: key}:
		default:
		}
	}
}

var _ port.StateStore = (*StateStore)(nil)
