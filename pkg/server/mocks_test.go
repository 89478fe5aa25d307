package server

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/shouni/cineprompt-kit/pkg/domain"
	"github.com/shouni/cineprompt-kit/pkg/intake"
	"github.com/shouni/cineprompt-kit/pkg/prompt"
)

// mockGenerator は generator.PromptGenerator のテスト用モックなのだ。
type mockGenerator struct {
	generateFunc func(ctx context.Context, in prompt.Instruction) (*domain.GenerationResult, error)
}

func (m *mockGenerator) Generate(ctx context.Context, in prompt.Instruction) (*domain.GenerationResult, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, in)
	}
	return &domain.GenerationResult{MainPrompt: "generated", Reasoning: "r", Options: in.Options}, nil
}

func (m *mockGenerator) Busy() bool { return false }

// mockFetcher は intake.Fetcher のテスト用モックなのだ。
type mockFetcher struct {
	fetchFunc func(ctx context.Context, rawURL string) (intake.File, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (intake.File, error) {
	return m.fetchFunc(ctx, rawURL)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}
