package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache 定义账户指标缓存接口
type Cache interface {
	// Set 写入缓存, value 会被 JSON 序列化
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get 读取缓存并 Unmarshal 到 target, 未命中返回 ErrMiss
	Get(ctx context.Context, key string, target interface{}) error
	// Delete 删除缓存
	Delete(ctx context.Context, key string) error
}

// MetricsKey is the cache key for an account's metrics on one network.
func MetricsKey(network, address string) string {
	return "metrics:" + network + ":" + address
}
