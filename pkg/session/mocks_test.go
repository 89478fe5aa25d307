package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shouni/cineprompt-kit/pkg/domain"
	"github.com/shouni/cineprompt-kit/pkg/prompt"
)

// mockGenerator は generator.PromptGenerator のテスト用モックなのだ。
type mockGenerator struct {
	calls        atomic.Int32
	last         prompt.Instruction
	busy         atomic.Bool
	generateFunc func(ctx context.Context, in prompt.Instruction) (*domain.GenerationResult, error)
}

func (m *mockGenerator) Generate(ctx context.Context, in prompt.Instruction) (*domain.GenerationResult, error) {
	m.calls.Add(1)
	m.last = in
	if m.generateFunc != nil {
		return m.generateFunc(ctx, in)
	}
	return &domain.GenerationResult{MainPrompt: "p", Reasoning: "r", Options: in.Options}, nil
}

func (m *mockGenerator) Busy() bool { return m.busy.Load() }

// mockRecorder は Append の呼び出しを記録するのだ。
type mockRecorder struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (m *mockRecorder) Append(ctx context.Context, result domain.GenerationResult, inputText, modelName string) domain.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := domain.HistoryEntry{GenerationResult: result, OriginalInput: inputText, Model: modelName}
	m.entries = append(m.entries, e)
	return e
}

func (m *mockRecorder) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func widescreen() *domain.ImageAsset {
	return domain.NewImageAsset("aGVsbG8=", "image/png", 1920, 1080)
}

func square() *domain.ImageAsset {
	return domain.NewImageAsset("aGVsbG8=", "image/png", 1000, 1000)
}

func ptr[T any](v T) *T { return &v }
