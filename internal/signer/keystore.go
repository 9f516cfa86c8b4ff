package signer

import (
	"context"
	"crypto/ecdsa"
	"sync"

	"icx-wallet/internal/transaction"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/address"
	"icx-wallet/pkg/crypto_util"
	"icx-wallet/pkg/errno"
	"icx-wallet/pkg/keystore"
)

// KeyStore 内存中已解锁的私钥, 按地址索引
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string]*ecdsa.PrivateKey
}

func NewKeyStore() *KeyStore {
	return &KeyStore{keys: make(map[string]*ecdsa.PrivateKey)}
}

// Put 保存私钥, 返回对应地址
func (k *KeyStore) Put(priv *ecdsa.PrivateKey) (string, error) {
	addr, err := address.PubKeyToAddress(crypto_util.PublicKeyBytes(priv))
	if err != nil {
		return "", err
	}
	k.mu.Lock()
	k.keys[addr] = priv
	k.mu.Unlock()
	return addr, nil
}

// Decrypt 解密 keystore 文件, 不保存私钥. 会话打开后再 Put
func (k *KeyStore) Decrypt(ks *keystore.EncryptedKeyJSON, password string) (*ecdsa.PrivateKey, string, error) {
	priv, err := ks.Decrypt(password)
	if err != nil {
		return nil, "", err
	}
	addr, err := address.PubKeyToAddress(crypto_util.PublicKeyBytes(priv))
	if err != nil {
		return nil, "", err
	}
	return priv, addr, nil
}

func (k *KeyStore) Has(addr string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	_, ok := k.keys[addr]
	return ok
}

// Forget 丢弃私钥, 会话关闭时调用
func (k *KeyStore) Forget(addr string) {
	k.mu.Lock()
	delete(k.keys, addr)
	k.mu.Unlock()
}

func (k *KeyStore) get(addr string) (*ecdsa.PrivateKey, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	priv, ok := k.keys[addr]
	return priv, ok
}

// KeystoreSigner 用内存私钥同步签名
type KeystoreSigner struct {
	keys *KeyStore
}

func NewKeystoreSigner(keys *KeyStore) *KeystoreSigner {
	return &KeystoreSigner{keys: keys}
}

func (s *KeystoreSigner) Sign(_ context.Context, u *transaction.Unsigned, h wallet.Handle) (*transaction.Signed, error) {
	priv, ok := s.keys.get(h.Address)
	if !ok {
		return nil, errno.New(errno.ErrSigningFailed, "no unlocked key for %s", h.Address)
	}
	sig, err := crypto_util.SignRecoverable(priv, u.HashBytes())
	if err != nil {
		return nil, errno.Wrap(errno.ErrSigningFailed, err)
	}
	return transaction.NewSigned(u, sig)
}
