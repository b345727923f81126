package blob

import (
	"context"

	"rentaltax/internal/cache"
	"rentaltax/internal/ports"
)

// CachedStore is a read-through cache in front of another ArtifactStore.
// Artifacts are immutable once written, so only Delete invalidates.
type CachedStore struct {
	next  ports.ArtifactStore
	cache cache.Cache[[]byte]
}

func NewCachedStore(next ports.ArtifactStore, c cache.Cache[[]byte]) *CachedStore {
	return &CachedStore{next: next, cache: c}
}

func (s *CachedStore) Put(ctx context.Context, fileName string, data []byte) (string, error) {
	return s.next.Put(ctx, fileName, data)
}

func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := s.cache.Get(key); ok {
		return append([]byte(nil), data...), nil
	}
	data, err := s.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, append([]byte(nil), data...))
	return data, nil
}

func (s *CachedStore) Delete(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return s.next.Delete(ctx, key)
}
