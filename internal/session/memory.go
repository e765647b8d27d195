package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	sess      Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Expired entries are dropped
// lazily on read. Sessions do not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[token]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, token)
		return nil, nil
	}
	sess := e.sess
	sess.Flashes = append([]Flash(nil), e.sess.Flashes...)
	sess.Token = token
	sess.dirty = false
	return &sess, nil
}

func (m *MemoryStore) Set(_ context.Context, token string, s *Session, ttl time.Duration) error {
	cp := *s
	cp.Flashes = append([]Flash(nil), s.Flashes...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[token] = memoryEntry{sess: cp, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, token)
	return nil
}
