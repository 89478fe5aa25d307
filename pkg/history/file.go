package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shouni/cineprompt-kit/pkg/domain"
)

// FileStore は履歴を1つの JSON ファイルに保存します。
type FileStore struct {
	path string
}

// NewFileStore は dir 配下の StorageKey + ".json" を保存先とする FileStore を返します。
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, StorageKey+".json")}
}

// Path は保存先のファイルパスを返します。
func (f *FileStore) Path() string {
	return f.path
}

// Load はファイルから履歴を読み込みます。ファイルが無ければ空を返します。
func (f *FileStore) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("履歴ファイルの読み込みに失敗しました: %w", err)
	}
	return decodeEntries(data)
}

// Save は一時ファイルに書いてから置き換えます。
func (f *FileStore) Save(ctx context.Context, entries []domain.HistoryEntry) error {
	data, err := encodeEntries(entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("履歴ディレクトリの作成に失敗しました: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("履歴ファイルの書き込みに失敗しました: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("履歴ファイルの置き換えに失敗しました: %w", err)
	}
	return nil
}

func encodeEntries(entries []domain.HistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("履歴のエンコードに失敗しました: %w", err)
	}
	return data, nil
}

func decodeEntries(data []byte) ([]domain.HistoryEntry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var entries []domain.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("履歴のデコードに失敗しました: %w", err)
	}
	return entries, nil
}
