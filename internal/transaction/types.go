package transaction

import (
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"strconv"
	"sync/atomic"

	"icx-wallet/pkg/address"
	"icx-wallet/pkg/amount"
	"icx-wallet/pkg/crypto_util"
	"icx-wallet/pkg/errno"
)

// Version ICON v3 交易版本
const Version = "0x3"

// Kind 交易类型
type Kind string

const (
	KindTransfer      Kind = "transfer"
	KindSetStake      Kind = "setStake"
	KindSetDelegation Kind = "setDelegation"
	KindClaimIScore   Kind = "claimIScore"
)

// Unsigned 构建完成后不可修改, 每次尝试都重新构建
type Unsigned struct {
	kind      Kind
	from      string
	to        string
	value     *big.Int
	stepLimit *big.Int
	timestamp int64 // 微秒
	nid       int64
	nonce     *big.Int
	dataType  string
	data      map[string]interface{}
}

func (u *Unsigned) Kind() Kind          { return u.kind }
func (u *Unsigned) From() string        { return u.from }
func (u *Unsigned) To() string          { return u.to }
func (u *Unsigned) NID() int64          { return u.nid }
func (u *Unsigned) Timestamp() int64    { return u.timestamp }
func (u *Unsigned) DataType() string    { return u.dataType }
func (u *Unsigned) Value() *big.Int     { return copyInt(u.value) }
func (u *Unsigned) StepLimit() *big.Int { return copyInt(u.stepLimit) }

// Method dataType=call 时调用的合约方法
func (u *Unsigned) Method() string {
	if u.data == nil {
		return ""
	}
	m, _ := u.data["method"].(string)
	return m
}

// Params 返回 RPC 参数 (不含 signature), 每次返回新的 map
func (u *Unsigned) Params() map[string]interface{} {
	p := map[string]interface{}{
		"version":   Version,
		"from":      u.from,
		"to":        u.to,
		"stepLimit": amount.ToHex(u.stepLimit),
		"timestamp": "0x" + strconv.FormatInt(u.timestamp, 16),
		"nid":       "0x" + strconv.FormatInt(u.nid, 16),
	}
	if u.value != nil {
		p["value"] = amount.ToHex(u.value)
	}
	if u.nonce != nil {
		p["nonce"] = amount.ToHex(u.nonce)
	}
	if u.dataType != "" {
		p["dataType"] = u.dataType
		p["data"] = deepCopy(u.data)
	}
	return p
}

// Serialize 返回签名用的规范化字符串
func (u *Unsigned) Serialize() string {
	return Serialize(u.Params())
}

// HashBytes SHA3-256(Serialize())
func (u *Unsigned) HashBytes() []byte {
	return crypto_util.SHA3256([]byte(u.Serialize()))
}

// Hash 0x 前缀的交易哈希, 与节点返回的 txHash 一致
func (u *Unsigned) Hash() string {
	return "0x" + hex.EncodeToString(u.HashBytes())
}

// Signed 签名后的交易, 只能提交一次
type Signed struct {
	unsigned  *Unsigned
	signature []byte
	hash      []byte
	consumed  atomic.Bool
}

// NewSigned 校验签名能恢复出 from 地址
func NewSigned(u *Unsigned, signature []byte) (*Signed, error) {
	if len(signature) != crypto_util.SignatureLength {
		return nil, errno.New(errno.ErrSigningFailed, "signature must be %d bytes, got %d", crypto_util.SignatureLength, len(signature))
	}
	digest := u.HashBytes()
	pub, err := crypto_util.RecoverPublicKey(digest, signature)
	if err != nil {
		return nil, errno.Wrap(errno.ErrSigningFailed, err)
	}
	signer, err := address.PubKeyToAddress(pub)
	if err != nil {
		return nil, errno.Wrap(errno.ErrSigningFailed, err)
	}
	if signer != u.from {
		return nil, errno.New(errno.ErrSigningFailed, "signature belongs to %s, expected %s", signer, u.from)
	}
	return &Signed{
		unsigned:  u,
		signature: append([]byte(nil), signature...),
		hash:      digest,
	}, nil
}

// NewSignedBase64 接收 base64 编码的签名 (ICONex 返回的格式)
func NewSignedBase64(u *Unsigned, signature string) (*Signed, error) {
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return nil, errno.New(errno.ErrSigningFailed, "invalid signature encoding: %v", err)
	}
	return NewSigned(u, raw)
}

func (s *Signed) Unsigned() *Unsigned { return s.unsigned }

// Signature base64 编码的 65 字节签名
func (s *Signed) Signature() string {
	return base64.StdEncoding.EncodeToString(s.signature)
}

// Hash 0x 前缀的交易哈希
func (s *Signed) Hash() string {
	return "0x" + hex.EncodeToString(s.hash)
}

// RPCParams icx_sendTransaction 的 params
func (s *Signed) RPCParams() map[string]interface{} {
	p := s.unsigned.Params()
	p["signature"] = s.Signature()
	return p
}

// Consume 标记已提交, 第二次调用返回 false
func (s *Signed) Consume() bool {
	return s.consumed.CompareAndSwap(false, true)
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func deepCopy(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}
