package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"icx-wallet/pkg/logger"
)

// MultiLevelCache 实现多级缓存 (L1: Memory, L2: Redis)
type MultiLevelCache struct {
	local  Cache
	remote Cache
	log    *zap.Logger
}

func NewMultiLevelCache(local, remote Cache) *MultiLevelCache {
	return &MultiLevelCache{
		local:  local,
		remote: remote,
		log:    logger.Named("cache"),
	}
}

func (m *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	// L1 TTL 取 L2 的一半, 减少多实例间的脏读窗口
	if err := m.local.Set(ctx, key, value, ttl/2); err != nil {
		m.log.Warn("L1 set failed", zap.String("key", key), zap.Error(err))
	}
	return m.remote.Set(ctx, key, value, ttl)
}

func (m *MultiLevelCache) Get(ctx context.Context, key string, target interface{}) error {
	if err := m.local.Get(ctx, key, target); err == nil {
		return nil
	}

	if err := m.remote.Get(ctx, key, target); err != nil {
		return err
	}
	// L2 命中回写 L1
	_ = m.local.Set(ctx, key, target, time.Minute)
	return nil
}

func (m *MultiLevelCache) Delete(ctx context.Context, key string) error {
	_ = m.local.Delete(ctx, key)
	return m.remote.Delete(ctx, key)
}
