package relay

import (
	"encoding/json"
)

// 默认主题, 与 ICONex 扩展的事件名一致
const (
	TopicRequest  = "ICONEX_RELAY_REQUEST"
	TopicResponse = "ICONEX_RELAY_RESPONSE"
)

// 请求类型
const (
	RequestHasAccount = "REQUEST_HAS_ACCOUNT"
	RequestAddress    = "REQUEST_ADDRESS"
	RequestSigning    = "REQUEST_SIGNING"
)

// 响应类型
const (
	ResponseHasAccount = "RESPONSE_HAS_ACCOUNT"
	ResponseAddress    = "RESPONSE_ADDRESS"
	ResponseSigning    = "RESPONSE_SIGNING"
	CancelSigning      = "CANCEL_SIGNING"
)

// Event 总线上的一条消息. ID 是请求方生成的关联 ID, 响应必须原样带回
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SigningPayload REQUEST_SIGNING 的 payload
type SigningPayload struct {
	From string `json:"from"`
	Hash string `json:"hash"`
}

// HasAccountPayload RESPONSE_HAS_ACCOUNT 的 payload
type HasAccountPayload struct {
	HasAccount bool `json:"hasAccount"`
}

// NewEvent 把 payload 编码进事件
func NewEvent(id, typ string, payload interface{}) (Event, error) {
	ev := Event{ID: id, Type: typ}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		ev.Payload = raw
	}
	return ev, nil
}
