package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// 履歴の保存先。
const (
	HistoryFile   = "file"
	HistoryRedis  = "redis"
	HistoryMemory = "memory"
)

// Config は環境変数から読み込む実行時設定です。
type Config struct {
	// 認証情報。GEMINI_API_KEY を優先し、無ければ API_KEY を使う。
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	LegacyAPIKey string `env:"API_KEY"`

	TextModel         string `env:"CINEPROMPT_TEXT_MODEL" envDefault:"gemini-3-pro-preview" validate:"required"`
	VisionModel       string `env:"CINEPROMPT_VISION_MODEL" envDefault:"gemini-3-pro-image-preview" validate:"required"`
	FallbackModel     string `env:"CINEPROMPT_FALLBACK_MODEL" envDefault:"gemini-3-flash-preview" validate:"required"`
	ReasoningLanguage string `env:"CINEPROMPT_REASONING_LANGUAGE" envDefault:"Italian" validate:"required"`

	HTTPPort        int           `env:"CINEPROMPT_PORT" envDefault:"8080" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `env:"CINEPROMPT_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// 参照画像の取り込み
	MaxImageBytes     int           `env:"CINEPROMPT_MAX_IMAGE_BYTES" envDefault:"4194304" validate:"gt=0"`
	MaxImageEdge      int           `env:"CINEPROMPT_MAX_IMAGE_EDGE" envDefault:"2048" validate:"gt=0"`
	FetchTimeout      time.Duration `env:"CINEPROMPT_FETCH_TIMEOUT" envDefault:"15s"`
	AllowPrivateFetch bool          `env:"CINEPROMPT_ALLOW_PRIVATE_FETCH" envDefault:"false"`

	// 履歴の保存先
	HistoryBackend string `env:"CINEPROMPT_HISTORY_BACKEND" envDefault:"file" validate:"oneof=file redis memory"`
	HistoryDir     string `env:"CINEPROMPT_HISTORY_DIR"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379" validate:"required_if=HistoryBackend redis"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0" validate:"min=0"`

	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

// Load は環境変数を読み込み、検証済みの Config を返します。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.HistoryBackend = strings.ToLower(strings.TrimSpace(cfg.HistoryBackend))

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.HistoryBackend == HistoryFile && cfg.HistoryDir == "" {
		cfg.HistoryDir = defaultHistoryDir()
	}
	return cfg, nil
}

// LoadEnvFiles は存在する .env ファイルを順に読み込みます。既存の環境変数は上書きしません。
func LoadEnvFiles(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn(".env ファイルの読み込みに失敗しました", "path", path, "error", err)
		}
	}
}

// APIKey は生成バックエンドの API キーを返します。
func (c *Config) APIKey() string {
	if k := strings.TrimSpace(c.GeminiAPIKey); k != "" {
		return k
	}
	return strings.TrimSpace(c.LegacyAPIKey)
}

// Addr は HTTP の待ち受けアドレスを返します。
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// SlogLevel は LOG_LEVEL を slog.Level に変換します。
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultHistoryDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cineprompt")
	}
	return ".cineprompt"
}
