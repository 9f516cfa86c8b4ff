package crypto_util

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength r(32) || s(32) || v(1)
const SignatureLength = 65

// GenerateSecp256k1Key 生成新的 secp256k1 私钥
func GenerateSecp256k1Key() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// SignRecoverable 对 32 字节摘要签名, 返回可恢复签名 r||s||v (v 为 0/1)
func SignRecoverable(priv *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}
	return crypto.Sign(digest, priv)
}

// RecoverPublicKey 从摘要和签名中恢复非压缩公钥 (65 bytes, 0x04 前缀)
func RecoverPublicKey(digest, sig []byte) ([]byte, error) {
	if len(sig) != SignatureLength {
		return nil, errors.New("invalid signature length")
	}
	return crypto.Ecrecover(digest, sig)
}

// PublicKeyBytes 返回非压缩公钥
func PublicKeyBytes(priv *ecdsa.PrivateKey) []byte {
	return crypto.FromECDSAPub(&priv.PublicKey)
}

// PrivateKeyFromBytes 解析 32 字节原始私钥
func PrivateKeyFromBytes(raw []byte) (*ecdsa.PrivateKey, error) {
	return crypto.ToECDSA(raw)
}

// PrivateKeyBytes 导出 32 字节原始私钥
func PrivateKeyBytes(priv *ecdsa.PrivateKey) []byte {
	return crypto.FromECDSA(priv)
}
