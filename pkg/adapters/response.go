package adapters

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/cineprompt-kit/pkg/generator"
)

// ParseToText は Gemini のレスポンスから本文テキストを取り出します。
// 思考パートは除外します。
func ParseToText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", generator.ErrEmptyResponse
	}

	// 最初の候補のみを利用する。
	candidate := resp.Candidates[0]

	var sb strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text != "" {
		return text, nil
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return "", fmt.Errorf("%w (FinishReason: %s)", generator.ErrEmptyResponse, candidate.FinishReason)
	}
	return "", generator.ErrEmptyResponse
}
