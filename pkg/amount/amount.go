package amount

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"icx-wallet/pkg/errno"
)

// Decimals loop 与 ICX 的换算精度, 1 ICX = 10^18 loop
const Decimals = 18

var (
	ratio = decimal.New(1, Decimals)

	// TransactionFee 界面展示用的估算手续费 (10^15 loop)
	TransactionFee = decimal.New(1, -3)
)

// ToDisplay loop -> ICX, 纯函数, nil 视为 0
func ToDisplay(loop *big.Int) decimal.Decimal {
	if loop == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(loop, -Decimals)
}

// ToLoop ICX -> loop. 小数位超过 18 位或为负数时返回 InvalidAmount
func ToLoop(icx decimal.Decimal) (*big.Int, error) {
	if icx.IsNegative() {
		return nil, errno.New(errno.ErrInvalidAmount, "amount must not be negative: %s", icx.String())
	}
	loop := icx.Mul(ratio)
	if !loop.IsInteger() {
		return nil, errno.New(errno.ErrInvalidAmount, "amount %s has more than %d decimal places", icx.String(), Decimals)
	}
	return loop.BigInt(), nil
}

// ParseDisplay 解析用户输入的 ICX 数值
func ParseDisplay(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errno.New(errno.ErrInvalidAmount, "amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errno.New(errno.ErrInvalidAmount, "invalid amount %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, errno.New(errno.ErrInvalidAmount, "amount must not be negative: %s", s)
	}
	return d, nil
}

// ParseLoop 解析链上返回的 loop 数值, 支持 0x 十六进制 (RPC 原生格式) 和十进制
func ParseLoop(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	v := new(big.Int)
	var ok bool
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		_, ok = v.SetString(s[2:], 16)
	default:
		_, ok = v.SetString(s, 10)
	}
	if !ok || v.Sign() < 0 {
		return nil, errno.New(errno.ErrInvalidAmount, "invalid loop value %q", s)
	}
	return v, nil
}

// ToHex 把 loop 编码为 RPC 使用的 0x 十六进制字符串
func ToHex(v *big.Int) string {
	if v == nil {
		return "0x0"
	}
	return "0x" + v.Text(16)
}

// Truncate 向零截断到 places 位小数, 投票分配使用, 保证不会多分
func Truncate(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Truncate(places)
}

// Format 展示用格式化: 整数原样输出, 否则保留 places 位小数
func Format(d decimal.Decimal, places int32) string {
	if d.IsInteger() {
		return d.String()
	}
	return d.StringFixed(places)
}
