package scraper

import (
	"time"
)

// mockCacheService is a simple in-memory cache for testing cooldowns
type mockCacheService struct {
	cache map[string][]byte
}

func newMockCacheService() *mockCacheService {
	return &mockCacheService{cache: make(map[string][]byte)}
}

func (m *mockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, &mockError{message: "cache miss"}
}

func (m *mockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	return nil
}

func (m *mockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}
