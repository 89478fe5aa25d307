package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/cineprompt-kit/pkg/domain"
)

// MaxEntries は保持する履歴の上限件数です。
const MaxEntries = 20

// StorageKey は永続化先で使うキー名です。
const StorageKey = "cineprompt.history"

// Persister は履歴リスト全体の読み書きを担当します。
// Save は常にリスト全体を書き換えます。
type Persister interface {
	Load(ctx context.Context) ([]domain.HistoryEntry, error)
	Save(ctx context.Context, entries []domain.HistoryEntry) error
}

// Store は新しい順に最大 MaxEntries 件の生成結果を保持します。
type Store struct {
	mu sync.RWMutex
	// saveMu は変更と保存を直列化し、永続化先に最後の変更が残るようにする
	saveMu    sync.Mutex
	entries   []domain.HistoryEntry
	persister Persister
	now       func() time.Time
	newID     func() string
}

// Option は Store の設定を変更します。
type Option func(*Store)

// WithClock はタイムスタンプに使う時計を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc は ID の採番方法を差し替えます。
func WithIDFunc(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// New は永続化先から履歴を読み込んで Store を初期化します。
// 読み込みに失敗した場合や内容が壊れている場合は空の履歴で開始します。
func New(ctx context.Context, persister Persister, opts ...Option) (*Store, error) {
	if persister == nil {
		return nil, fmt.Errorf("persister is required")
	}
	s := &Store{
		persister: persister,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}

	entries, err := persister.Load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "履歴の読み込みに失敗したため空の履歴で開始します", "error", err)
		entries = nil
	}
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	s.entries = entries
	return s, nil
}

// Append は結果を先頭に追加し、上限を超えた古いものを捨てて保存します。
// inputText が空の場合は domain.ImageOnlyInput を記録します。
func (s *Store) Append(ctx context.Context, result domain.GenerationResult, inputText, modelName string) domain.HistoryEntry {
	if inputText == "" {
		inputText = domain.ImageOnlyInput
	}
	entry := domain.HistoryEntry{
		GenerationResult: result,
		ID:               s.newID(),
		OriginalInput:    inputText,
		Timestamp:        s.now().UnixMilli(),
		Model:            modelName,
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	next := make([]domain.HistoryEntry, 0, MaxEntries)
	next = append(next, entry)
	next = append(next, s.entries...)
	if len(next) > MaxEntries {
		next = next[:MaxEntries]
	}
	s.entries = next
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.save(ctx, snapshot)
	return entry
}

// Clear は履歴を空にして保存します。何度呼んでも同じ結果になります。
func (s *Store) Clear(ctx context.Context) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()

	s.save(ctx, []domain.HistoryEntry{})
}

// All は新しい順の履歴のコピーを返します。
func (s *Store) All() []domain.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len は現在の件数を返します。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Get は ID に一致する履歴を返します。
func (s *Store) Get(id string) (domain.HistoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return domain.HistoryEntry{}, false
}

func (s *Store) snapshotLocked() []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// save の失敗はログに残すだけで、メモリ上の履歴はそのまま使い続ける。
func (s *Store) save(ctx context.Context, entries []domain.HistoryEntry) {
	if err := s.persister.Save(ctx, entries); err != nil {
		slog.WarnContext(ctx, "履歴の保存に失敗しました", "error", err, "entries", len(entries))
	}
}
