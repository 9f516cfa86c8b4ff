package address

import (
	"encoding/hex"
	"errors"
	"regexp"

	"icx-wallet/pkg/crypto_util"
)

const (
	EOAPrefix      = "hx"
	ContractPrefix = "cx"

	// GovernanceScore 治理合约 (stake / delegation / iscore)
	GovernanceScore = "cx0000000000000000000000000000000000000000"
	// NetworkScore 网络参数合约 (getStepCosts / getStepPrice)
	NetworkScore = "cx0000000000000000000000000000000000000001"
)

var (
	eoaPattern      = regexp.MustCompile(`^hx[0-9a-f]{40}$`)
	contractPattern = regexp.MustCompile(`^cx[0-9a-f]{40}$`)

	ErrInvalidPublicKey = errors.New("invalid public key")
)

// PubKeyToAddress 将非压缩公钥 (65 bytes, 0x04... 或去掉前缀的 64 bytes) 转换为 ICON EOA 地址
// 规则: "hx" + sha3_256(pubkey[1:]) 的后 20 字节
func PubKeyToAddress(pubKeyBytes []byte) (string, error) {
	if len(pubKeyBytes) == 65 && pubKeyBytes[0] == 0x04 {
		pubKeyBytes = pubKeyBytes[1:]
	}
	if len(pubKeyBytes) != 64 {
		return "", ErrInvalidPublicKey
	}

	hash := crypto_util.SHA3256(pubKeyBytes)
	return EOAPrefix + hex.EncodeToString(hash[12:]), nil
}

// IsEOA 是否为外部账户地址
func IsEOA(addr string) bool {
	return eoaPattern.MatchString(addr)
}

// IsContract 是否为合约地址
func IsContract(addr string) bool {
	return contractPattern.MatchString(addr)
}

// IsValid 接受 EOA 或合约地址
func IsValid(addr string) bool {
	return IsEOA(addr) || IsContract(addr)
}
