package relay

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"icx-wallet/pkg/config"
)

// New 按配置创建总线. redis 传输需要 rdb, kafka 传输使用 kafkaCfg.Brokers
func New(cfg config.RelayConfig, rdb *redis.Client, kafkaCfg config.KafkaConfig) (Bus, error) {
	// 每个进程使用独立的消费组, 保证响应能回到发起请求的实例
	instance := cfg.ConsumerGroup + "-" + uuid.NewString()[:8]

	switch cfg.Transport {
	case "", "memory":
		return NewFeedBus(), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("relay transport redis requires a redis client")
		}
		return Pair{
			Producer: NewRedisProducer(rdb),
			Consumer: NewRedisConsumer(rdb, instance, instance),
		}, nil
	case "kafka":
		if len(kafkaCfg.Brokers) == 0 {
			return nil, fmt.Errorf("relay transport kafka requires brokers")
		}
		return kafkaBus{
			KafkaProducer: NewKafkaProducer(kafkaCfg.Brokers),
			KafkaConsumer: NewKafkaConsumer(kafkaCfg.Brokers, instance),
		}, nil
	default:
		return nil, fmt.Errorf("unknown relay transport %q", cfg.Transport)
	}
}

type kafkaBus struct {
	*KafkaProducer
	*KafkaConsumer
}

func (b kafkaBus) Close() error {
	perr := b.KafkaProducer.Close()
	if err := b.KafkaConsumer.Close(); err != nil {
		return err
	}
	return perr
}
