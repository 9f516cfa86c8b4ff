package bip32

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// HardenedOffset BIP-32 硬化索引偏移
const HardenedOffset = hdkeychain.HardenedKeyStart

// ICXBasePath Ledger ICX app 的基础路径, 第 n 个账户为 BasePath + "/n'"
const ICXBasePath = "44'/4801368'/0'/0'"

// ParsePath 解析派生路径为索引序列
// 支持格式: m/44'/4801368'/0'/0'/0' 、44'/4801368'/0'/0' 或 44h/...
func ParsePath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "m")
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil, nil
	}

	segments := strings.Split(path, "/")
	indexes := make([]uint32, 0, len(segments))
	for _, segment := range segments {
		isHardened := false
		if strings.HasSuffix(segment, "'") || strings.HasSuffix(segment, "h") {
			isHardened = true
			segment = segment[:len(segment)-1]
		}

		val, err := strconv.ParseUint(segment, 10, 32)
		if err != nil || val >= uint64(HardenedOffset) {
			return nil, fmt.Errorf("%w: 无效的路径段 '%s'", ErrInvalidPath, segment)
		}
		index := uint32(val)
		if isHardened {
			index += HardenedOffset
		}
		indexes = append(indexes, index)
	}
	return indexes, nil
}

// AccountPath 返回基础路径下第 n 个账户的完整路径
func AccountPath(base string, n int) string {
	return strings.TrimSuffix(base, "/") + "/" + strconv.Itoa(n) + "'"
}

// FormatPath ParsePath 的逆操作, 不带 "m/" 前缀
func FormatPath(indexes []uint32) string {
	parts := make([]string, len(indexes))
	for i, idx := range indexes {
		if idx >= HardenedOffset {
			parts[i] = strconv.FormatUint(uint64(idx-HardenedOffset), 10) + "'"
		} else {
			parts[i] = strconv.FormatUint(uint64(idx), 10)
		}
	}
	return strings.Join(parts, "/")
}
