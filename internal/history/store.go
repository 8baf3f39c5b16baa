package history

import (
	"context"
	"sync"

	"linebot_assistant/pkg"
)

// DefaultCapacity bounds the per-user conversation window.
const DefaultCapacity = 5

// Store is the session-store abstraction for per-user conversation history.
// Implementations keep an ordered bounded sequence per user and evict the
// oldest entry on overflow.
type Store interface {
	Append(ctx context.Context, userID string, entry pkg.ConversationEntry) error
	Read(ctx context.Context, userID string) ([]pkg.ConversationEntry, error)
	Clear(ctx context.Context, userID string) error
}

// MemoryStore keeps history in process memory. The user-id key space is never
// pruned; deployments that need bounded memory should use RedisStore instead.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string][]pkg.ConversationEntry
}

// NewMemoryStore creates an in-memory history store. A non-positive capacity
// falls back to DefaultCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		entries:  make(map[string][]pkg.ConversationEntry),
	}
}

// Append inserts the entry at the tail, evicting the head when the window is
// full.
func (m *MemoryStore) Append(ctx context.Context, userID string, entry pkg.ConversationEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	window := append(m.entries[userID], entry)
	if len(window) > m.capacity {
		window = window[len(window)-m.capacity:]
	}
	m.entries[userID] = window
	return nil
}

// Read returns the current ordered window. Unseen users get an empty slice.
func (m *MemoryStore) Read(ctx context.Context, userID string) ([]pkg.ConversationEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	window := m.entries[userID]
	out := make([]pkg.ConversationEntry, len(window))
	copy(out, window)
	return out, nil
}

// Clear drops the user's window. Clearing an unseen user is a no-op.
func (m *MemoryStore) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, userID)
	return nil
}
