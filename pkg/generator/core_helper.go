package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shouni/cineprompt-kit/pkg/domain"
)

// responsePayload はバックエンドが返す JSON の形です。
type responsePayload struct {
	MainPrompt        string                    `json:"mainPrompt"`
	Reasoning         string                    `json:"reasoning"`
	SuggestedSettings *domain.SuggestedSettings `json:"suggestedSettings"`
}

func (c *Client) attempt(ctx context.Context, model string, in Instruction, useSearch bool) (*Result, error) {
	req := &Request{
		Model:             model,
		SystemInstruction: SystemInstruction(c.cfg.ReasoningLanguage),
		Segments:          in.Segments(),
		UseSearch:         useSearch,
		ResponseMIMEType:  responseMIMEType,
		ResponseSchema:    ResponseSchema(c.cfg.ReasoningLanguage),
	}

	text, err := c.backend.GenerateContent(ctx, req)
	if err != nil {
		return nil, err // ラップは呼び出し元で行う
	}

	res, err := parseResult(text)
	if err != nil {
		return nil, err
	}
	res.Options = in.Options
	res.BackendModel = model
	return res, nil
}

// shouldFallback はフォールバックの対象となるエラーかを判定します。
func shouldFallback(err error) bool {
	return IsPermissionDenied(err) ||
		errors.Is(err, ErrEmptyResponse) ||
		errors.Is(err, ErrMalformedResponse)
}

// parseResult は応答テキストを検証して Result に変換します。
func parseResult(text string) (*Result, error) {
	body := stripCodeFence(strings.TrimSpace(text))
	if body == "" {
		return nil, ErrEmptyResponse
	}

	var payload responsePayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	payload.MainPrompt = strings.TrimSpace(payload.MainPrompt)
	payload.Reasoning = strings.TrimSpace(payload.Reasoning)
	if payload.MainPrompt == "" || payload.Reasoning == "" {
		return nil, fmt.Errorf("%w: mainPrompt and reasoning are required", ErrMalformedResponse)
	}

	return &Result{
		MainPrompt:        payload.MainPrompt,
		Reasoning:         payload.Reasoning,
		SuggestedSettings: payload.SuggestedSettings,
	}, nil
}

// stripCodeFence は ```json ... ``` で囲まれた応答から中身を取り出します。
// 開始フェンスと本文が同じ行にある場合も扱います。
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(s, "```")), "```")

	// 言語タグ（json 等）を取り除く
	switch i := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}); {
	case i < 0:
		s = ""
	case i > 0:
		s = s[i:]
	}
	return strings.TrimSpace(s)
}
