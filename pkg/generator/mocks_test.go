package generator

import (
	"context"
	"sync"
)

// --- Mocks ---

// mockBackend は呼び出しを記録し、generateFunc の結果を返します。
type mockBackend struct {
	mu           sync.Mutex
	calls        []*Request
	generateFunc func(ctx context.Context, req *Request) (string, error)
}

func (m *mockBackend) GenerateContent(ctx context.Context, req *Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return validJSON, nil
}

func (m *mockBackend) Calls() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Request, len(m.calls))
	copy(out, m.calls)
	return out
}

const validJSON = `{"mainPrompt":"A slow dolly-in across a rain-soaked street.","reasoning":"Strategia basata sul movimento.","suggestedSettings":{"resolution":"1080p","fps":"24","motionScale":5}}`
