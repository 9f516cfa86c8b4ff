package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 仅当 value 属于自己时才删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLock 基于 Redis SET NX 的实现
type RedisLock struct {
	client *redis.Client
	owner  string
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client, owner: uuid.NewString()}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, "lock:"+key, l.owner, ttl).Result()
}

func (l *RedisLock) Release(ctx context.Context, key string) error {
	return releaseScript.Run(ctx, l.client, []string{"lock:" + key}, l.owner).Err()
}
