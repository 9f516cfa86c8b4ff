package bip39

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// ErrInvalidMnemonic 单词不在词表中或校验和错误
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// 单词数 -> 熵位数
var entropyBits = map[int]int{12: 128, 15: 160, 18: 192, 21: 224, 24: 256}

// MnemonicService 英文词表的 BIP-39 助记词, 用于 keystore 派生和 Ledger 模拟器种子
type MnemonicService struct{}

func NewMnemonicService() *MnemonicService {
	return &MnemonicService{}
}

// Generate 生成 words 个单词的助记词
func (s *MnemonicService) Generate(words int) (string, error) {
	bits, ok := entropyBits[words]
	if !ok {
		return "", fmt.Errorf("unsupported mnemonic length %d", words)
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("生成熵失败: %w", err)
	}
	return bip39.NewMnemonic(entropy)
}

// Normalize 合并多余空白并转小写. 用户粘贴的助记词先经过这里
func Normalize(mnemonic string) string {
	return strings.ToLower(strings.Join(strings.Fields(mnemonic), " "))
}

func (s *MnemonicService) Valid(mnemonic string) bool {
	return bip39.IsMnemonicValid(Normalize(mnemonic))
}

// Seed 校验助记词并返回 64 字节种子. passphrase 为空时与 Ledger 默认一致
func (s *MnemonicService) Seed(mnemonic, passphrase string) ([]byte, error) {
	m := Normalize(mnemonic)
	if !bip39.IsMnemonicValid(m) {
		return nil, ErrInvalidMnemonic
	}
	return bip39.NewSeed(m, passphrase), nil
}
