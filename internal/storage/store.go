package storage

import (
	"errors"
	"sync"
)

var ErrKeyNotFound = errors.New("storage: key not found")

// Change reports a write to a LocalStore key. Value is nil on removal.
type Change struct {
	Key   string
	Value []byte
}

// LocalStore is the persisted key/value area shared by every client on the
// same machine. Watchers are told about writes, including their own.
type LocalStore interface {
	Load(key string) ([]byte, error)
	Store(key string, value []byte) error
	Remove(key string) error
	Watch(fn func(Change)) (stop func(), err error)
}

// MemoryStore is a LocalStore kept in process memory. Clients that share one
// instance behave like browser tabs sharing localStorage.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	watchers map[int]func(Change)
	next     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]byte),
		watchers: make(map[int]func(Change)),
	}
}

func (s *MemoryStore) Load(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Store(key string, value []byte) error {
	s.mu.Lock()
	s.data[key] = append([]byte(nil), value...)
	fns := s.snapshotWatchers()
	s.mu.Unlock()

	notify(fns, Change{Key: key, Value: value})
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	_, existed := s.data[key]
	delete(s.data, key)
	fns := s.snapshotWatchers()
	s.mu.Unlock()

	if existed {
		notify(fns, Change{Key: key})
	}
	return nil
}

func (s *MemoryStore) Watch(fn func(Change)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.watchers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}, nil
}

// snapshotWatchers must be called with s.mu held.
func (s *MemoryStore) snapshotWatchers() []func(Change) {
	fns := make([]func(Change), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func(Change), ch Change) {
	for _, fn := range fns {
		fn(ch)
	}
}
