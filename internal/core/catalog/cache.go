package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"virtual-kitchen/internal/infrastructure/config"
	"virtual-kitchen/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// kvStore CachedSource 需要的 Redis 指令
type kvStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedSource 以 Redis 快取原始集合資料
type CachedSource struct {
	next   Source
	client kvStore
	prefix string
	ttl    time.Duration
}

// NewCachedSource 創建快取來源，並測試 Redis 連接
func NewCachedSource(ctx context.Context, cfg config.CacheConfig, next Source) (*CachedSource, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newCachedSource(next, client, cfg.KeyPrefix, cfg.TTL), client, nil
}

func newCachedSource(next Source, client kvStore, prefix string, ttl time.Duration) *CachedSource {
	return &CachedSource{
		next:   next,
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Fetch 先查快取，未命中時讀取下層來源並寫回
func (s *CachedSource) Fetch(ctx context.Context, collection string) ([]byte, error) {
	key := s.key(collection)

	data, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		common.LogCacheHit("catalog", key)
		return data, nil
	case errors.Is(err, redis.Nil):
		common.LogCacheMiss("catalog", key)
	default:
		// 快取故障不影響載入
		common.LogWarn("讀取目錄快取失敗",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	data, err = s.next.Fetch(ctx, collection)
	if err != nil {
		return nil, err
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		common.LogWarn("寫入目錄快取失敗",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return data, nil
}

// Invalidate 刪除指定集合的快取
func (s *CachedSource) Invalidate(ctx context.Context, collections ...string) error {
	if len(collections) == 0 {
		return nil
	}
	keys := make([]string, 0, len(collections))
	for _, c := range collections {
		keys = append(keys, s.key(c))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	common.LogInfo("已清除目錄快取", zap.Strings("keys", keys))
	return nil
}

// key 生成快取鍵
func (s *CachedSource) key(collection string) string {
	return fmt.Sprintf("%s:%s", s.prefix, collection)
}
