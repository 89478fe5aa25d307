package adapters

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/cineprompt-kit/pkg/prompt"
)

// ToParts は順序付きセグメントを genai.Part の列に変換します。
// 画像はインラインデータ、テキストはテキストパートになり、順序は保たれます。
func ToParts(segments []prompt.Segment) ([]*genai.Part, error) {
	parts := make([]*genai.Part, 0, len(segments))
	for i, seg := range segments {
		if seg.Image != nil {
			data, err := base64.StdEncoding.DecodeString(seg.Image.Base64)
			if err != nil {
				return nil, fmt.Errorf("セグメント %d の画像デコードに失敗しました: %w", i, err)
			}
			part := ToPart(data, seg.Image.MIMEType)
			if part == nil {
				return nil, fmt.Errorf("セグメント %d は画像として送信できません", i)
			}
			parts = append(parts, part)
			continue
		}
		if seg.Text != "" {
			parts = append(parts, genai.NewPartFromText(seg.Text))
		}
	}
	return parts, nil
}

// ToPart はバイト列を genai.Part (InlineData) に変換します。
// mimeType が空の場合は内容から判定します。
func ToPart(data []byte, mimeType string) *genai.Part {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		slog.Warn("MIMEタイプが画像ではないためPartに変換できませんでした", "mime_type", mimeType)
		return nil
	}
	return &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: mimeType,
			Data:     data,
		},
	}
}
