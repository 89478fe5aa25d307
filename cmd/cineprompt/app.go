package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/shouni/cineprompt-kit/pkg/adapters"
	"github.com/shouni/cineprompt-kit/pkg/config"
	"github.com/shouni/cineprompt-kit/pkg/generator"
	"github.com/shouni/cineprompt-kit/pkg/history"
	"github.com/shouni/cineprompt-kit/pkg/intake"
	"github.com/shouni/cineprompt-kit/pkg/session"
)

var cfg *config.Config

// setup は .env と環境変数から設定を読み込み、ロガーを初期化します。
func setup(envFile string) error {
	config.LoadEnvFiles(envFile)
	c, err := config.Load()
	if err != nil {
		return err
	}
	cfg = c
	slog.SetDefault(newLogger(os.Stderr, cfg))
	return nil
}

func newLogger(w io.Writer, c *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// app はコマンドが使う部品一式です。
type app struct {
	history *history.Store
	client  *generator.Client
	decoder *intake.Decoder
	session *session.Session
	closers []func() error
}

func newApp(ctx context.Context, c *config.Config) (*app, error) {
	a := &app{}

	persister, err := a.newPersister(ctx, c)
	if err != nil {
		return nil, err
	}
	a.history, err = history.New(ctx, persister)
	if err != nil {
		return nil, err
	}

	if c.APIKey() == "" {
		slog.WarnContext(ctx, "APIキーが設定されていません。生成時にエラーになります")
	}
	a.client, err = generator.NewClient(adapters.NewGeminiBackend(c.APIKey()), generator.Config{
		APIKey:            c.APIKey(),
		TextModel:         c.TextModel,
		VisionModel:       c.VisionModel,
		FallbackModel:     c.FallbackModel,
		ReasoningLanguage: c.ReasoningLanguage,
	})
	if err != nil {
		return nil, err
	}

	fetcherOpts := []intake.FetcherOption{
		intake.WithTimeout(c.FetchTimeout),
		intake.WithMaxSize(c.MaxFetchBytes),
	}
	if c.AllowPrivateFetch {
		fetcherOpts = append(fetcherOpts, intake.WithAllowPrivateNetworks())
	}
	a.decoder = intake.NewDecoder(
		intake.WithMaxBytes(c.MaxImageBytes),
		intake.WithMaxEdge(c.MaxImageEdge),
		intake.WithFetcher(intake.NewRemoteFetcher(fetcherOpts...)),
	)

	a.session, err = session.New(a.client, a.history)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) newPersister(ctx context.Context, c *config.Config) (history.Persister, error) {
	switch c.HistoryBackend {
	case config.HistoryRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			slog.WarnContext(ctx, "Redisに接続できません。履歴の保存は失敗し続けます", "addr", c.RedisAddr, "error", err)
		}
		a.closers = append(a.closers, client.Close)
		return history.NewRedisStore(client, history.StorageKey)
	case config.HistoryMemory:
		return history.NewMemoryStore(), nil
	case config.HistoryFile:
		return history.NewFileStore(c.HistoryDir), nil
	default:
		return nil, fmt.Errorf("unknown history backend: %s", c.HistoryBackend)
	}
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			slog.Warn("リソースの解放に失敗しました", "error", err)
		}
	}
}
