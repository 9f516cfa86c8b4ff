package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"icx-wallet/pkg/logger"
)

// RedisProducer 实现 Producer 接口
type RedisProducer struct {
	client *redis.Client
	maxLen int64
}

func NewRedisProducer(client *redis.Client) *RedisProducer {
	return &RedisProducer{client: client, maxLen: 1000}
}

// Publish 发送消息到 Redis Stream (XADD)
func (p *RedisProducer) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"key":     key,
			"payload": payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd error: %w", err)
	}
	return nil
}

// RedisConsumer 实现 Consumer 接口
type RedisConsumer struct {
	client *redis.Client
	group  string
	name   string
	log    *zap.Logger
}

// NewRedisConsumer group 相同的消费者分摊消息; 需要收到全部响应时每个实例使用独立 group
func NewRedisConsumer(client *redis.Client, group, name string) *RedisConsumer {
	return &RedisConsumer{
		client: client,
		group:  group,
		name:   name,
		log:    logger.Named("relay-redis"),
	}
}

func (c *RedisConsumer) Subscribe(ctx context.Context, topic string, handler func(msg *Message) error) error {
	// XGROUP CREATE <stream> <group> $ MKSTREAM
	err := c.client.XGroupCreateMkStream(ctx, topic, c.group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("创建消费者组失败: %w", err)
	}

	c.log.Info("开始监听主题", zap.String("topic", topic), zap.String("group", c.group))
	go c.consumeLoop(ctx, topic, handler)
	return nil
}

func (c *RedisConsumer) consumeLoop(ctx context.Context, topic string, handler func(msg *Message) error) {
	for ctx.Err() == nil {
		// XREADGROUP GROUP <group> <consumer> BLOCK 2000 COUNT 10 STREAMS <topic> >
		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.name,
			Streams:  []string{topic, ">"},
			Count:    10,
			Block:    2 * time.Second,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("读取消息错误", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, x := range stream.Messages {
				payload, ok := x.Values["payload"].(string)
				if !ok {
					c.log.Warn("消息格式错误: payload 缺失", zap.String("id", x.ID))
					c.ack(ctx, topic, x.ID)
					continue
				}
				key, _ := x.Values["key"].(string)

				msg := &Message{ID: x.ID, Topic: topic, Key: key, Payload: []byte(payload)}
				if err := handler(msg); err != nil {
					c.log.Warn("消息处理失败", zap.String("id", x.ID), zap.Error(err))
					continue
				}
				c.ack(ctx, topic, x.ID)
			}
		}
	}
}

func (c *RedisConsumer) ack(ctx context.Context, topic, id string) {
	c.client.XAck(ctx, topic, c.group, id)
}

// Close 客户端由调用方管理, 这里不关闭
func (c *RedisConsumer) Close() error {
	return nil
}
