package middleware_test

import (
	"context"
	"sync"

	"github.com/aretw0/metta/pkg/ports"
)

// MockStore keeps entries in memory so tests can see what was persisted.
type MockStore struct {
	mu      sync.Mutex
	entries []string
}

func (s *MockStore) Load(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries...), nil
}

func (s *MockStore) Append(ctx context.Context, entries ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *MockStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

var _ ports.HistoryStore = (*MockStore)(nil)
