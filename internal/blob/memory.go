package blob

import (
	"context"
	"fmt"
	"sync"

	"rentaltax/internal/core"
)

// MemoryStore keeps artifacts in a map. Data is copied on the way in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, fileName string, data []byte) (string, error) {
	key := NewKey(fileName)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return key, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, core.NotFoundf("artifact %s", key)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return core.NotFoundf("artifact %s", key)
	}
	delete(s.objects, key)
	return nil
}

// Len is the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *MemoryStore) String() string {
	return fmt.Sprintf("memory(%d objects)", s.Len())
}
