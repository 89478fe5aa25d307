package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

// Client は一次モデル→フォールバックモデルの方針でプロンプト生成を行います。
type Client struct {
	backend Backend
	cfg     Config
	busy    atomic.Bool
}

// NewClient は依存関係を注入して Client を初期化します。
func NewClient(backend Backend, cfg Config) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	return &Client{
		backend: backend,
		cfg:     cfg.withDefaults(),
	}, nil
}

// Busy は生成が実行中かどうかを返します。
func (c *Client) Busy() bool {
	return c.busy.Load()
}

// PrimaryModel は参照画像の有無に応じた一次モデル名を返します。
func (c *Client) PrimaryModel(hasImages bool) string {
	if hasImages {
		return c.cfg.VisionModel
	}
	return c.cfg.TextModel
}

// FallbackModel はフォールバック先のモデル名を返します。
func (c *Client) FallbackModel() string {
	return c.cfg.FallbackModel
}

// Generate は指示をバックエンドに送り、構造化された結果を返します。
//
// 一次モデルが権限エラー・空応答・スキーマ不一致で失敗した場合のみ、
// 検索を無効にしたフォールバックモデルで1回だけ再試行します。
// フォールバックも失敗した場合はフォールバック側のエラーを返します。
func (c *Client) Generate(ctx context.Context, in Instruction) (*Result, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, ErrMissingCredential
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.busy.Store(false)

	primary := c.PrimaryModel(in.HasImages())
	res, err := c.attempt(ctx, primary, in, true)
	if err == nil {
		return res, nil
	}

	if !shouldFallback(err) {
		slog.ErrorContext(ctx, "プロンプト生成に失敗しました", "model", primary, "error", err)
		return nil, err
	}

	fallback := c.cfg.FallbackModel
	slog.WarnContext(ctx, "一次モデルが失敗したためフォールバックモデルで再試行します",
		"primary", primary, "fallback", fallback, "error", err)

	res, err = c.attempt(ctx, fallback, in, false)
	if err != nil {
		slog.ErrorContext(ctx, "フォールバックでの生成にも失敗しました", "model", fallback, "error", err)
		return nil, err
	}
	res.Fallback = true
	return res, nil
}
