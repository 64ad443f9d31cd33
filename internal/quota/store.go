package quota

import (
	"context"
	"sync"

	"github.com/mindrender/mindrender/internal/model"
)

// Store persists usage events. Events are append-only; the running total is
// aggregated on read. Retention is an external concern — the core never
// deletes.
type Store interface {
	AppendUsageEvent(ctx context.Context, event model.UsageEvent) error
	SumUsage(ctx context.Context, userID string) (int, error)
}

// MemoryStore implements Store with an in-memory event list. Used in tests
// and local development without a database.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]model.UsageEvent
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string][]model.UsageEvent)}
}

// AppendUsageEvent records one event.
func (m *MemoryStore) AppendUsageEvent(_ context.Context, event model.UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.UserID] = append(m.events[event.UserID], event)
	return nil
}

// SumUsage aggregates the user's events into a running total. Users with no
// events report zero; the record is created lazily on first charge.
func (m *MemoryStore) SumUsage(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, e := range m.events[userID] {
		total += e.Tokens
	}
	return total, nil
}

// Events returns a copy of the user's events, oldest first. For tests.
func (m *MemoryStore) Events(userID string) []model.UsageEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.UsageEvent, len(m.events[userID]))
	copy(out, m.events[userID])
	return out
}
