package lock

import (
	"context"
	"sync"
	"time"
)

// DistributedLock 定义互斥锁接口
type DistributedLock interface {
	// Acquire 尝试获取锁, 不阻塞
	// 返回: (是否成功, error)
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release 释放锁
	Release(ctx context.Context, key string) error
}

// LocalLock 进程内实现, 单机 CLI / 测试使用. ttl <= 0 表示永不过期
type LocalLock struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{held: make(map[string]time.Time)}
}

func (l *LocalLock) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if exp, ok := l.held[key]; ok && (exp.IsZero() || now.Before(exp)) {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	l.held[key] = exp
	return true, nil
}

func (l *LocalLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.held, key)
	l.mu.Unlock()
	return nil
}
