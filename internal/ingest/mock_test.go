package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"surplusbridge/ingestworker/internal/parser"
	"surplusbridge/ingestworker/services/store"
)

// mockCandidateStore is an in-memory CandidateStore with the same
// conflict-key semantics as the Postgres implementation.
type mockCandidateStore struct {
	mu         sync.Mutex
	candidates map[uuid.UUID]*store.Candidate
	byIDKey    map[string]uuid.UUID // platform + "/" + source_id
	byURL      map[string]uuid.UUID
	insertErr  error
}

func newMockCandidateStore() *mockCandidateStore {
	return &mockCandidateStore{
		candidates: make(map[uuid.UUID]*store.Candidate),
		byIDKey:    make(map[string]uuid.UUID),
		byURL:      make(map[string]uuid.UUID),
	}
}

func idKey(platform parser.Platform, sourceID string) string {
	return fmt.Sprintf("%s/%s", platform, sourceID)
}

func (m *mockCandidateStore) InsertIfAbsent(_ context.Context, c *store.Candidate, key store.ConflictKey) (store.InsertOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return store.InsertOutcome{}, m.insertErr
	}

	switch key {
	case store.ConflictSourceID:
		if _, exists := m.byIDKey[idKey(c.Platform, c.SourceID)]; exists {
			return store.InsertOutcome{Inserted: false, Reason: "duplicate source_id"}, nil
		}
	case store.ConflictSourceURL:
		if _, exists := m.byURL[c.SourceURL]; exists {
			return store.InsertOutcome{Inserted: false, Reason: "duplicate source_url"}, nil
		}
	}

	stored := *c
	m.candidates[c.ID] = &stored
	m.byIDKey[idKey(c.Platform, c.SourceID)] = c.ID
	m.byURL[c.SourceURL] = c.ID
	return store.InsertOutcome{Inserted: true}, nil
}

func (m *mockCandidateStore) FindBySourceURL(_ context.Context, sourceURL string) (*store.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byURL[sourceURL]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *m.candidates[id]
	return &c, nil
}

func (m *mockCandidateStore) FindByID(_ context.Context, id uuid.UUID) (*store.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (m *mockCandidateStore) ListByStatus(_ context.Context, status store.CandidateStatus, limit int) ([]store.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Candidate
	for _, c := range m.candidates {
		if c.Status == status && len(out) < limit {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCandidateStore) UpdateStatus(_ context.Context, id uuid.UUID, status store.CandidateStatus, reviewer, notes string) (*store.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if c.Status != store.StatusQueued {
		return nil, store.ErrInvalidTransition
	}
	c.Status = status
	c.ReviewedBy = reviewer
	c.OperatorNotes = notes
	cc := *c
	return &cc, nil
}

// mockHealthStore records appended entries in order.
type mockHealthStore struct {
	mu        sync.Mutex
	entries   []store.AgentHealthEntry
	appendErr error
}

func (m *mockHealthStore) Append(_ context.Context, entry *store.AgentHealthEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockHealthStore) Recent(_ context.Context, limit int) ([]store.AgentHealthEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.AgentHealthEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *mockHealthStore) last() *store.AgentHealthEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil
	}
	e := m.entries[len(m.entries)-1]
	return &e
}

// mockPropertyStore records which candidates became properties.
type mockPropertyStore struct {
	mu        sync.Mutex
	created   []uuid.UUID
	createErr error
}

func (m *mockPropertyStore) CreateFromCandidate(_ context.Context, c *store.Candidate) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return uuid.Nil, m.createErr
	}
	id := uuid.New()
	m.created = append(m.created, c.ID)
	return id, nil
}

// mockPublisher records published payloads.
type mockPublisher struct {
	mu         sync.Mutex
	published  [][]byte
	publishErr error
}

func (m *mockPublisher) PublishProperty(_ context.Context, _ string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, payload)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// mockSessions maps bearer tokens to roles.
type mockSessions struct {
	roles map[string]string
}

func (m *mockSessions) RoleForToken(_ context.Context, token string) (string, error) {
	role, ok := m.roles[token]
	if !ok {
		return "", store.ErrNotFound
	}
	return role, nil
}
