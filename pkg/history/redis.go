package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shouni/cineprompt-kit/pkg/domain"
)

// RedisStore は履歴を Redis の単一キーに JSON として保存します。
type RedisStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisStore は client を使う RedisStore を返します。key が空なら StorageKey を使います。
func NewRedisStore(client redis.Cmdable, key string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		key = StorageKey
	}
	return &RedisStore{client: client, key: key}, nil
}

// Load はキーの値を読み込みます。キーが無ければ空を返します。
func (r *RedisStore) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Redisからの履歴読み込みに失敗しました: %w", err)
	}
	return decodeEntries(data)
}

// Save はリスト全体でキーを上書きします。
func (r *RedisStore) Save(ctx context.Context, entries []domain.HistoryEntry) error {
	data, err := encodeEntries(entries)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("Redisへの履歴保存に失敗しました: %w", err)
	}
	return nil
}
