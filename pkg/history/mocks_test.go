package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shouni/cineprompt-kit/pkg/domain"
)

var errStorage = errors.New("storage unavailable")

// failingPersister は読み書きが常に失敗する Persister なのだ。
type failingPersister struct {
	saveCalls int
}

func (f *failingPersister) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	return nil, errStorage
}

func (f *failingPersister) Save(ctx context.Context, entries []domain.HistoryEntry) error {
	f.saveCalls++
	return errStorage
}

// slowPersister は件数が少ない保存ほど遅れて書き込む Persister なのだ。
type slowPersister struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (p *slowPersister) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entries, nil
}

func (p *slowPersister) Save(ctx context.Context, entries []domain.HistoryEntry) error {
	time.Sleep(time.Duration(MaxEntries-len(entries)) * 100 * time.Microsecond)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = entries
	return nil
}

// fixedClock は呼ばれるたびに1秒進む時計を返すのだ。
func fixedClock() func() time.Time {
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// seqIDs は連番の ID を返すのだ。
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func result(prompt string) domain.GenerationResult {
	return domain.GenerationResult{
		MainPrompt: prompt,
		Reasoning:  "r",
		Options:    domain.DefaultOptions(),
	}
}
