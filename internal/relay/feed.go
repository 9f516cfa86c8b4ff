package relay

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"

	"icx-wallet/pkg/logger"
)

// FeedBus 进程内总线, 基于 go-ethereum 的 event.Feed, 每个订阅者都会收到全部消息
type FeedBus struct {
	feed  event.Feed
	scope event.SubscriptionScope
	log   *zap.Logger
	once  sync.Once
}

func NewFeedBus() *FeedBus {
	return &FeedBus{log: logger.Named("relay-feed")}
}

func (b *FeedBus) Publish(_ context.Context, topic string, key string, payload []byte) error {
	b.feed.Send(&Message{Topic: topic, Key: key, Payload: append([]byte(nil), payload...)})
	return nil
}

func (b *FeedBus) Subscribe(ctx context.Context, topic string, handler func(msg *Message) error) error {
	ch := make(chan *Message, 64)
	sub := b.scope.Track(b.feed.Subscribe(ch))

	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Err():
				return
			case msg := <-ch:
				if msg.Topic != topic {
					continue
				}
				if err := handler(msg); err != nil {
					b.log.Warn("relay handler failed", zap.String("topic", topic), zap.Error(err))
				}
			}
		}
	}()
	return nil
}

// Close 结束所有订阅
func (b *FeedBus) Close() error {
	b.once.Do(b.scope.Close)
	return nil
}
