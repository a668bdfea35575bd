package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// MockStorage is an in-memory Storage implementation for testing.
// Sessions round-trip through JSON so tests exercise the same
// serialization path as Redis.
type MockStorage struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID][]byte

	SaveErr   error
	LoadErr   error
	DeleteErr error
	PingErr   error
}

var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID][]byte),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error { return m.PingErr }

func (m *MockStorage) Close() error { return nil }

func (m *MockStorage) SaveSession(ctx context.Context, sess *session.AdventureSession) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	sess.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = data
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*session.AdventureSession, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}

	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var sess session.AdventureSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
