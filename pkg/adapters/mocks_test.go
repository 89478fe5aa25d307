package adapters

import (
	"context"

	"google.golang.org/genai"
)

// mockModels は contentGenerator のテスト用モックなのだ。
type mockModels struct {
	calls        int
	lastModel    string
	lastContents []*genai.Content
	lastConfig   *genai.GenerateContentConfig
	generateFunc func(model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls++
	m.lastModel = model
	m.lastContents = contents
	m.lastConfig = cfg
	if m.generateFunc != nil {
		return m.generateFunc(model, contents, cfg)
	}
	return textResponse(`{"mainPrompt":"p","reasoning":"r"}`), nil
}

// newTestBackend はモックを差し込んだ GeminiBackend を返すのだ。
func newTestBackend(m *mockModels) *GeminiBackend {
	b := NewGeminiBackend("test-key")
	b.newModels = func(ctx context.Context, apiKey string) (contentGenerator, error) {
		return m, nil
	}
	return b
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}
