package crypto_util

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// SHA3256 计算 SHA3-256 (FIPS-202) 摘要, ICON 交易哈希和地址都使用它
func SHA3256(data []byte) []byte {
	hash := sha3.Sum256(data)
	return hash[:]
}

// CalculateSHA3256 返回 SHA3-256 的 hex 字符串
func CalculateSHA3256(data []byte) string {
	return hex.EncodeToString(SHA3256(data))
}

// CalculateBlake3 计算输入的 Blake3 哈希值。
// 用于签名后交易的去重指纹, 不参与链上校验。
func CalculateBlake3(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}
