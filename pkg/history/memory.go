package history

import (
	"context"
	"sync"

	"github.com/shouni/cineprompt-kit/pkg/domain"
)

// MemoryStore はプロセス内だけで履歴を保持する Persister です。
type MemoryStore struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

// NewMemoryStore は空の MemoryStore を返します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.HistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, entries []domain.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make([]domain.HistoryEntry, len(entries))
	copy(m.entries, entries)
	return nil
}
