package generator

import (
	"github.com/shouni/cineprompt-kit/pkg/domain"
	"github.com/shouni/cineprompt-kit/pkg/prompt"
)

const (
	DefaultTextModel         = "gemini-3-pro-preview"
	DefaultVisionModel       = "gemini-3-pro-image-preview"
	DefaultFallbackModel     = "gemini-3-flash-preview"
	DefaultReasoningLanguage = "Italian"

	responseMIMEType = "application/json"
)

// Instruction と Result はパッケージ外から見た入出力の別名です。
type (
	Instruction = prompt.Instruction
	Result      = domain.GenerationResult
)

// Config は Client の設定です。
type Config struct {
	APIKey            string
	TextModel         string // 参照画像なしの一次モデル
	VisionModel       string // 参照画像ありの一次モデル
	FallbackModel     string // 権限エラー時に1回だけ使うモデル（検索なし）
	ReasoningLanguage string
}

func (c Config) withDefaults() Config {
	if c.TextModel == "" {
		c.TextModel = DefaultTextModel
	}
	if c.VisionModel == "" {
		c.VisionModel = DefaultVisionModel
	}
	if c.FallbackModel == "" {
		c.FallbackModel = DefaultFallbackModel
	}
	if c.ReasoningLanguage == "" {
		c.ReasoningLanguage = DefaultReasoningLanguage
	}
	return c
}

// Request はバックエンドへの1回分の要求です。
type Request struct {
	Model             string
	SystemInstruction string
	Segments          []prompt.Segment
	UseSearch         bool // 検索グラウンディングを有効にするか
	ResponseMIMEType  string
	ResponseSchema    *Schema
}

// Schema はバックエンドに宣言する構造化出力のスキーマです。
type Schema struct {
	Type        string
	Description string
	Properties  map[string]*Schema
	Required    []string
}

// Schema.Type に使う値。
const (
	TypeObject = "OBJECT"
	TypeString = "STRING"
	TypeNumber = "NUMBER"
)
