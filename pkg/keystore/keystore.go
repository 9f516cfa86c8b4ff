package keystore

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	gethks "github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/google/uuid"

	"icx-wallet/pkg/address"
	"icx-wallet/pkg/crypto_util"
	"icx-wallet/pkg/errno"
)

const (
	Version  = 3
	CoinType = "icx"

	// StandardScryptN / StandardScryptP 与 ICONex 导出的 keystore 一致
	StandardScryptN = gethks.StandardScryptN
	StandardScryptP = gethks.StandardScryptP
	// LightScryptN / LightScryptP 仅用于测试
	LightScryptN = gethks.LightScryptN
	LightScryptP = gethks.LightScryptP
)

// ErrWrongPassword 解密失败 (密码错误或文件损坏)
var ErrWrongPassword = errors.New("incorrect password")

// EncryptedKeyJSON ICON keystore 文件 (Ethereum V3 结构 + address / coinType)
type EncryptedKeyJSON struct {
	Version  int               `json:"version"`
	ID       string            `json:"id"`
	Address  string            `json:"address"`
	Crypto   gethks.CryptoJSON `json:"crypto"`
	CoinType string            `json:"coinType,omitempty"`
}

// Encrypt 使用密码加密私钥, 生成 keystore
func Encrypt(priv *ecdsa.PrivateKey, password string, scryptN, scryptP int) (*EncryptedKeyJSON, error) {
	addr, err := address.PubKeyToAddress(crypto_util.PublicKeyBytes(priv))
	if err != nil {
		return nil, err
	}

	cj, err := gethks.EncryptDataV3(crypto_util.PrivateKeyBytes(priv), []byte(password), scryptN, scryptP)
	if err != nil {
		return nil, fmt.Errorf("encrypt key: %w", err)
	}

	return &EncryptedKeyJSON{
		Version:  Version,
		ID:       uuid.NewString(),
		Address:  addr,
		Crypto:   cj,
		CoinType: CoinType,
	}, nil
}

// Validate 解密前的结构校验: version / id / address 必须存在
func (k *EncryptedKeyJSON) Validate() error {
	switch {
	case k.Version == 0:
		return errno.New(errno.ErrInvalidKeystore, "keystore is missing version")
	case k.ID == "":
		return errno.New(errno.ErrInvalidKeystore, "keystore is missing id")
	case k.Address == "":
		return errno.New(errno.ErrInvalidKeystore, "keystore is missing address")
	case !address.IsEOA(k.Address):
		return errno.New(errno.ErrInvalidKeystore, "keystore address %q is not an ICON address", k.Address)
	}
	return nil
}

// Decrypt 解密私钥, 并校验其地址与文件记录的地址一致
func (k *EncryptedKeyJSON) Decrypt(password string) (*ecdsa.PrivateKey, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}

	raw, err := gethks.DecryptDataV3(k.Crypto, password)
	if err != nil {
		if errors.Is(err, gethks.ErrDecrypt) {
			return nil, errno.Wrap(errno.ErrInvalidKeystore, ErrWrongPassword)
		}
		return nil, errno.Wrap(errno.ErrInvalidKeystore, err)
	}

	priv, err := crypto_util.PrivateKeyFromBytes(raw)
	if err != nil {
		return nil, errno.Wrap(errno.ErrInvalidKeystore, err)
	}

	addr, _ := address.PubKeyToAddress(crypto_util.PublicKeyBytes(priv))
	if addr != k.Address {
		return nil, errno.New(errno.ErrInvalidKeystore, "keystore address mismatch: file says %s, key is %s", k.Address, addr)
	}
	return priv, nil
}

// Parse 解析并校验 keystore JSON
func Parse(data []byte) (*EncryptedKeyJSON, error) {
	var k EncryptedKeyJSON
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, errno.Wrap(errno.ErrInvalidKeystore, err)
	}
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return &k, nil
}

// SaveToFile 保存到文件
func (k *EncryptedKeyJSON) SaveToFile(filename string) error {
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0600) // 0600 is important
}

// LoadFromFile 从文件加载
func LoadFromFile(filename string) (*EncryptedKeyJSON, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
