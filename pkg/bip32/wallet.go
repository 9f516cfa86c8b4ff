package bip32

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"icx-wallet/pkg/address"
	"icx-wallet/pkg/crypto_util"
)

// Keychain 实现了 ExtendedKey 接口，封装了 hdkeychain.ExtendedKey
type Keychain struct {
	key *hdkeychain.ExtendedKey
}

func (k *Keychain) String() string {
	return k.key.String()
}

func (k *Keychain) PublicKey() ([]byte, error) {
	pub, err := k.key.ECPubKey()
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// PrivateKey 返回 go-ethereum 可直接签名的私钥
func (k *Keychain) PrivateKey() (*ecdsa.PrivateKey, error) {
	priv, err := k.key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return crypto_util.PrivateKeyFromBytes(priv.Serialize())
}

func (k *Keychain) ChainCode() []byte {
	return k.key.ChainCode()
}

func (k *Keychain) Derive(index uint32) (ExtendedKey, error) {
	childKey, err := k.key.Derive(index)
	if err != nil {
		return nil, fmt.Errorf("派生子密钥失败: %v", err)
	}
	return &Keychain{key: childKey}, nil
}

func (k *Keychain) Address() (string, error) {
	pub, err := k.PublicKey()
	if err != nil {
		return "", err
	}
	return address.PubKeyToAddress(pub)
}

// Wallet 实现 HDWallet 接口
type Wallet struct {
	masterKey *Keychain
}

// NewMasterKeyFromSeed 使用 BIP-39 种子生成主密钥
func NewMasterKeyFromSeed(seed []byte) (*Wallet, error) {
	if len(seed) < 16 || len(seed) > 64 {
		return nil, ErrInvalidSeed
	}

	// 版本字节只影响 xprv 序列化, 对派生结果没有影响
	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("生成主密钥失败: %v", err)
	}

	return &Wallet{masterKey: &Keychain{key: masterKey}}, nil
}

func (w *Wallet) MasterKey() ExtendedKey {
	return w.masterKey
}

// DerivePath 解析路径并派生密钥
func (w *Wallet) DerivePath(path string) (ExtendedKey, error) {
	indexes, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	var current ExtendedKey = w.masterKey
	for _, index := range indexes {
		current, err = current.Derive(index)
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}
