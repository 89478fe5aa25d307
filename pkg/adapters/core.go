package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/shouni/cineprompt-kit/pkg/generator"
)

// contentGenerator は genai.Models のうち本パッケージが使う部分です。
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiBackend は generator.Backend を Gemini API で実装するアダプターです。
// SDK クライアントは最初の呼び出しで生成します。
type GeminiBackend struct {
	apiKey    string
	mu        sync.Mutex
	models    contentGenerator
	newModels func(ctx context.Context, apiKey string) (contentGenerator, error)
}

// NewGeminiBackend は API キーを受け取って GeminiBackend を生成します。
func NewGeminiBackend(apiKey string) *GeminiBackend {
	return &GeminiBackend{
		apiKey:    apiKey,
		newModels: newGenAIModels,
	}
}

func newGenAIModels(ctx context.Context, apiKey string) (contentGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
	}
	return client.Models, nil
}

func (b *GeminiBackend) client(ctx context.Context) (contentGenerator, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.models != nil {
		return b.models, nil
	}
	if strings.TrimSpace(b.apiKey) == "" {
		return nil, generator.ErrMissingCredential
	}
	m, err := b.newModels(ctx, b.apiKey)
	if err != nil {
		return nil, err
	}
	b.models = m
	return m, nil
}

// GenerateContent は1回分の要求を Gemini に送り、応答テキストを返します。
func (b *GeminiBackend) GenerateContent(ctx context.Context, req *generator.Request) (string, error) {
	if req == nil {
		return "", errors.New("request is required")
	}
	models, err := b.client(ctx)
	if err != nil {
		return "", err
	}

	parts, err := ToParts(req.Segments)
	if err != nil {
		return "", err
	}

	resp, err := models.GenerateContent(ctx, req.Model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		BuildConfig(req))
	if err != nil {
		return "", toBackendError(err)
	}
	return ParseToText(resp)
}

// BuildConfig は要求内容を genai の生成設定に変換します。
func BuildConfig(req *generator.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: req.ResponseMIMEType,
		ResponseSchema:   toGenAISchema(req.ResponseSchema),
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
	}
	if req.UseSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

func toGenAISchema(s *generator.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(s.Type),
		Description: s.Description,
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toGenAISchema(v)
		}
	}
	return out
}

// toBackendError は SDK のエラーをステータス付きの generator.BackendError に変換します。
func toBackendError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &generator.BackendError{StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &generator.BackendError{StatusCode: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message, Err: err}
	}
	return fmt.Errorf("Gemini APIの呼び出しに失敗しました: %w", err)
}
