package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("既定値で読み込めるのだ", func(t *testing.T) {
		t.Setenv("CINEPROMPT_HISTORY_DIR", t.TempDir())

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "gemini-3-pro-preview", cfg.TextModel)
		assert.Equal(t, "Italian", cfg.ReasoningLanguage)
		assert.Equal(t, ":8080", cfg.Addr())
		assert.Equal(t, 4*1024*1024, cfg.MaxImageBytes)
		assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
		assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes)
		assert.Equal(t, 20<<20, cfg.MaxFetchBytes)
		assert.Equal(t, HistoryFile, cfg.HistoryBackend)
	})

	t.Run("GEMINI_API_KEY を API_KEY より優先するのだ", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", " primary ")
		t.Setenv("API_KEY", "legacy")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "primary", cfg.APIKey())
	})

	t.Run("API_KEY だけでも使えるのだ", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("API_KEY", "legacy")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "legacy", cfg.APIKey())
	})

	t.Run("不正なログ形式は拒否するのだ", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "xml")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("未知の履歴バックエンドは拒否するのだ", func(t *testing.T) {
		t.Setenv("CINEPROMPT_HISTORY_BACKEND", "sqlite")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoadEnvFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CINEPROMPT_TEST_ONLY=from-file\n"), 0o600))
	t.Setenv("CINEPROMPT_TEST_ONLY", "")
	require.NoError(t, os.Unsetenv("CINEPROMPT_TEST_ONLY"))

	LoadEnvFiles(path, filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "from-file", os.Getenv("CINEPROMPT_TEST_ONLY"))
}

func TestConfig_SlogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", (&Config{LogLevel: "debug"}).SlogLevel().String())
	assert.Equal(t, "INFO", (&Config{LogLevel: ""}).SlogLevel().String())
}
