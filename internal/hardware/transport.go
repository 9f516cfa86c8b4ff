package hardware

import (
	"errors"
	"fmt"
	"strings"

	ledger_go "github.com/zondax/ledger-go"
)

// Transport 一次 APDU 往返. 与 ledger_go.LedgerDevice 的方法集一致,
// 状态字不是 0x9000 时返回 error
type Transport interface {
	Exchange(command []byte) ([]byte, error)
	Close() error
}

// Opener 打开设备传输
type Opener func() (Transport, error)

// LedgerOpener 通过 USB HID 连接第一台 Ledger
func LedgerOpener() Opener {
	return func() (Transport, error) {
		dev, err := ledger_go.NewLedgerAdmin().Connect(0)
		if err != nil {
			return nil, fmt.Errorf("connect ledger: %w", err)
		}
		return dev, nil
	}
}

const (
	SWOK                     uint16 = 0x9000
	SWConditionsNotSatisfied uint16 = 0x6985 // 用户在设备上拒绝
	SWCommandNotAllowed      uint16 = 0x6986
	SWWrongData              uint16 = 0x6a80
	SWInsNotSupported        uint16 = 0x6d00
	SWClaNotSupported        uint16 = 0x6e00
)

// StatusError 设备返回的非 0x9000 状态字
type StatusError struct {
	Code uint16
}

func (e *StatusError) Error() string {
	switch e.Code {
	case SWConditionsNotSatisfied:
		return "[APDU_CODE_CONDITIONS_NOT_SATISFIED] Conditions of use not satisfied"
	case SWCommandNotAllowed:
		return "[APDU_CODE_COMMAND_NOT_ALLOWED] Command not allowed"
	default:
		return fmt.Sprintf("device returned status 0x%04x", e.Code)
	}
}

// IsUserRejected 判断错误是否为用户在设备上拒绝.
// ledger-go 只返回错误字符串, 所以同时按状态字和文本匹配
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == SWConditionsNotSatisfied || se.Code == SWCommandNotAllowed
	}
	msg := err.Error()
	return strings.Contains(msg, "CONDITIONS_NOT_SATISFIED") ||
		strings.Contains(msg, "COMMAND_NOT_ALLOWED") ||
		strings.Contains(msg, "6985") ||
		strings.Contains(msg, "6986")
}
