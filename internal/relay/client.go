package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"icx-wallet/pkg/errno"
	"icx-wallet/pkg/logger"
	"icx-wallet/pkg/monitor"
)

// Client 通过总线与 ICONex 扩展交互. 每个请求带唯一 ID,
// 对应的 waiter 在收到第一条匹配响应后立即移除, 之后同 ID 的事件只记录日志
type Client struct {
	bus           Bus
	requestTopic  string
	responseTopic string

	mu      sync.Mutex
	waiters map[string]chan Event
	started bool
	log     *zap.Logger
}

func NewClient(bus Bus, requestTopic, responseTopic string) *Client {
	if requestTopic == "" {
		requestTopic = TopicRequest
	}
	if responseTopic == "" {
		responseTopic = TopicResponse
	}
	return &Client{
		bus:           bus,
		requestTopic:  requestTopic,
		responseTopic: responseTopic,
		waiters:       make(map[string]chan Event),
		log:           logger.Named("relay-client"),
	}
}

// Start 订阅响应主题, ctx 取消后停止
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	if err := c.bus.Subscribe(ctx, c.responseTopic, c.handle); err != nil {
		// 订阅失败允许再次 Start
		c.mu.Lock()
		c.started = false
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Client) handle(msg *Message) error {
	var ev Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		c.log.Warn("malformed relay event", zap.Error(err))
		return nil
	}
	c.deliver(ev)
	return nil
}

func (c *Client) deliver(ev Event) {
	c.mu.Lock()
	ch, ok := c.waiters[ev.ID]
	if ok {
		delete(c.waiters, ev.ID)
	}
	c.mu.Unlock()

	if !ok {
		c.log.Debug("dropping relay event with no pending request", zap.String("id", ev.ID), zap.String("type", ev.Type))
		return
	}
	ch <- ev // 容量为 1, 且只会发送一次
}

// Pending 等待中的请求数
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Request 发布请求并等待对应 ID 的第一条响应. 没有超时, 只能通过 ctx 放弃
func (c *Client) Request(ctx context.Context, typ string, payload interface{}) (Event, error) {
	id := uuid.NewString()
	ev, err := NewEvent(id, typ, payload)
	if err != nil {
		return Event{}, err
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return Event{}, err
	}

	ch := make(chan Event, 1)
	c.mu.Lock()
	c.waiters[id] = ch
	c.mu.Unlock()
	monitor.Business.RelayPendingSigns.Inc()
	defer monitor.Business.RelayPendingSigns.Dec()

	if err := c.bus.Publish(ctx, c.requestTopic, id, raw); err != nil {
		c.forget(id)
		return Event{}, fmt.Errorf("publish relay request: %w", err)
	}
	c.log.Debug("relay request sent", zap.String("id", id), zap.String("type", typ))

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		c.forget(id)
		return Event{}, ctx.Err()
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.waiters, id)
	c.mu.Unlock()
}

// HasAccount 扩展中是否有可用账户
func (c *Client) HasAccount(ctx context.Context) (bool, error) {
	resp, err := c.Request(ctx, RequestHasAccount, nil)
	if err != nil {
		return false, err
	}
	if resp.Type != ResponseHasAccount {
		return false, unknownEvent(resp)
	}
	var p HasAccountPayload
	if err := json.Unmarshal(resp.Payload, &p); err != nil {
		return false, fmt.Errorf("decode %s: %w", resp.Type, err)
	}
	return p.HasAccount, nil
}

// Address 让用户在扩展中选择账户, 返回地址
func (c *Client) Address(ctx context.Context) (string, error) {
	resp, err := c.Request(ctx, RequestAddress, nil)
	if err != nil {
		return "", err
	}
	if resp.Type != ResponseAddress {
		return "", unknownEvent(resp)
	}
	var addr string
	if err := json.Unmarshal(resp.Payload, &addr); err != nil {
		return "", fmt.Errorf("decode %s: %w", resp.Type, err)
	}
	return addr, nil
}

// RequestSigning 请求扩展对交易哈希签名, 返回 base64 签名
func (c *Client) RequestSigning(ctx context.Context, from, hash string) (string, error) {
	resp, err := c.Request(ctx, RequestSigning, SigningPayload{From: from, Hash: hash})
	if err != nil {
		return "", err
	}

	switch resp.Type {
	case ResponseSigning:
		var sig string
		if err := json.Unmarshal(resp.Payload, &sig); err != nil {
			return "", errno.New(errno.ErrSigningFailed, "decode signature: %v", err)
		}
		return sig, nil
	case CancelSigning:
		return "", errno.Wrap(errno.ErrUserRejected, nil)
	default:
		return "", unknownEvent(resp)
	}
}

func unknownEvent(ev Event) error {
	return errno.New(errno.ErrUnknownRelayEvent, "unknown relay event %q", ev.Type)
}
