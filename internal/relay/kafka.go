package relay

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"icx-wallet/pkg/logger"
)

// KafkaProducer 实现 Producer 接口, 按 topic 复用 Writer
type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string) *KafkaProducer {
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{}, // 同一关联 ID 落在同一分区
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireOne,
			// 签名请求是交互式的, 不做批量等待
			BatchSize:    1,
			BatchTimeout: time.Millisecond,
		},
	}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("kafka write error: %w", err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// KafkaConsumer 实现 Consumer 接口
type KafkaConsumer struct {
	brokers []string
	groupID string

	mu      sync.Mutex
	readers []*kafka.Reader
	log     *zap.Logger
}

func NewKafkaConsumer(brokers []string, groupID string) *KafkaConsumer {
	return &KafkaConsumer{
		brokers: brokers,
		groupID: groupID,
		log:     logger.Named("relay-kafka"),
	}
}

func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, handler func(msg *Message) error) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.brokers,
		GroupID:     c.groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    1e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.LastOffset, // 只关心订阅之后的请求/响应
	})

	c.mu.Lock()
	c.readers = append(c.readers, reader)
	c.mu.Unlock()

	c.log.Info("开始监听主题", zap.String("topic", topic), zap.String("group", c.groupID))
	go c.consumeLoop(ctx, reader, topic, handler)
	return nil
}

func (c *KafkaConsumer) consumeLoop(ctx context.Context, reader *kafka.Reader, topic string, handler func(msg *Message) error) {
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("读取消息错误", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		msg := &Message{
			ID:      strconv.Itoa(m.Partition) + "-" + strconv.FormatInt(m.Offset, 10),
			Topic:   topic,
			Key:     string(m.Key),
			Payload: m.Value,
		}
		if err := handler(msg); err != nil {
			// 响应只投递一次, 处理失败也提交 offset
			c.log.Warn("消息处理失败", zap.String("id", msg.ID), zap.Error(err))
		}
		if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.log.Warn("提交 Offset 失败", zap.Error(err))
		}
	}
}

func (c *KafkaConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for _, r := range c.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.readers = nil
	return firstErr
}
