package relay

import "context"

// Message 总线上的原始消息
type Message struct {
	ID      string // 传输层消息 ID (Redis Stream ID / Kafka offset)
	Topic   string
	Key     string // 分区键, 这里使用关联 ID
	Payload []byte // Event JSON
}

// Producer 生产者接口
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte) error
}

// Consumer 消费者接口
type Consumer interface {
	// Subscribe 在后台开始消费 topic, ctx 取消时停止. 订阅建立后立即返回
	// handler 返回 error 时消息不会被确认
	Subscribe(ctx context.Context, topic string, handler func(msg *Message) error) error

	// Close 关闭消费者
	Close() error
}

// Bus 同时具备发布和订阅能力的传输
type Bus interface {
	Producer
	Consumer
}

// Pair 把独立的 Producer 和 Consumer 组合成 Bus
type Pair struct {
	Producer
	Consumer
}
