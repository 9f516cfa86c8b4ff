package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"icx-wallet/pkg/logger"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// Bridge 把总线上的请求转发给通过 websocket 连接的扩展, 并把扩展的响应发布回总线
type Bridge struct {
	bus           Bus
	requestTopic  string
	responseTopic string
	upgrader      websocket.Upgrader
	log           *zap.Logger
}

func NewBridge(bus Bus, requestTopic, responseTopic string) *Bridge {
	if requestTopic == "" {
		requestTopic = TopicRequest
	}
	if responseTopic == "" {
		responseTopic = TopicResponse
	}
	return &Bridge{
		bus:           bus,
		requestTopic:  requestTopic,
		responseTopic: responseTopic,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     allowExtensionOrigin,
		},
		log: logger.Named("relay-bridge"),
	}
}

// allowExtensionOrigin 只接受浏览器扩展和本机页面
func allowExtensionOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if strings.HasPrefix(origin, "chrome-extension://") || strings.HasPrefix(origin, "moz-extension://") {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	remote := conn.RemoteAddr().String()
	b.log.Info("extension connected", zap.String("remote", remote))

	out := make(chan []byte, 16)
	err = b.bus.Subscribe(ctx, b.requestTopic, func(msg *Message) error {
		select {
		case out <- msg.Payload:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		b.log.Error("subscribe request topic failed", zap.Error(err))
		return
	}

	go b.writeLoop(ctx, cancel, conn, out)
	b.readLoop(ctx, conn)
	b.log.Info("extension disconnected", zap.String("remote", remote))
}

func (b *Bridge) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out <-chan []byte) {
	defer cancel()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				b.log.Warn("write to extension failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (b *Bridge) readLoop(ctx context.Context, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.log.Warn("read from extension failed", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil || ev.ID == "" || ev.Type == "" {
			b.log.Warn("ignoring malformed event from extension")
			continue
		}
		if err := b.bus.Publish(ctx, b.responseTopic, ev.ID, data); err != nil {
			b.log.Error("publish relay response failed", zap.String("id", ev.ID), zap.Error(err))
		}
	}
}
