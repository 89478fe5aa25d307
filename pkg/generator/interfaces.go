package generator

import (
	"context"
)

// Backend は生成バックエンド（Gemini 等）への1回の呼び出しを担当します。
// 応答テキスト（JSON）をそのまま返し、解析は Client 側で行います。
// 権限エラー等は *BackendError として返す必要があります。
type Backend interface {
	GenerateContent(ctx context.Context, req *Request) (string, error)
}

// PromptGenerator はセッション層が利用する統合窓口です。
type PromptGenerator interface {
	Generate(ctx context.Context, in Instruction) (*Result, error)
	Busy() bool
}
