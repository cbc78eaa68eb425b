package mock_cache

import (
	"context"
	"sync"
	"time"

	"github.com/genaker/imagecache/pkg/cache"
	"github.com/genaker/imagecache/pkg/cachekey"
)

type storedArtifact struct {
	data      []byte
	mimeType  string
	createdAt time.Time
}

// MockStore is an in-memory cache.Store for tests. It is safe for
// concurrent use and can be told to fail on demand.
type MockStore struct {
	artifacts map[string]storedArtifact
	lock      sync.Mutex
	err       error

	writeCount int
}

var _ cache.Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{
		artifacts: make(map[string]storedArtifact),
	}
}

func (s *MockStore) InstantWrite(key cachekey.Key, data []byte, mimeType string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.artifacts[key.Value] = storedArtifact{data, mimeType, time.Now()}
}

func (s *MockStore) ReturnError(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.err = err
}

func (s *MockStore) Exists(key cachekey.Key) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, exists := s.artifacts[key.Value]
	return exists
}

func (s *MockStore) WriteCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.writeCount
}

func (s *MockStore) Lookup(ctx context.Context, key cachekey.Key) (cache.Entry, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.err != nil {
		return cache.Entry{}, s.err
	}

	artifact, exists := s.artifacts[key.Value]
	if !exists {
		return cache.Entry{}, cache.ErrEntryNotFound
	}

	return cache.Entry{
		Key:       key.Value,
		FilePath:  key.RelPath,
		MimeType:  artifact.mimeType,
		SizeBytes: int64(len(artifact.data)),
		CreatedAt: artifact.createdAt,
	}, nil
}

func (s *MockStore) Read(ctx context.Context, key cachekey.Key) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	artifact, exists := s.artifacts[key.Value]
	if !exists {
		return nil, cache.ErrEntryNotFound
	}

	return artifact.data, nil
}

func (s *MockStore) Write(ctx context.Context, key cachekey.Key, data []byte, mimeType string) (cache.Entry, error) {
	s.lock.Lock()

	if s.err != nil {
		s.lock.Unlock()
		return cache.Entry{}, s.err
	}

	s.artifacts[key.Value] = storedArtifact{data, mimeType, time.Now()}
	s.writeCount++
	s.lock.Unlock()

	return s.Lookup(ctx, key)
}

func (s *MockStore) Delete(ctx context.Context, key cachekey.Key) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.err != nil {
		return s.err
	}

	if _, exists := s.artifacts[key.Value]; !exists {
		return cache.ErrEntryNotFound
	}

	delete(s.artifacts, key.Value)
	return nil
}
