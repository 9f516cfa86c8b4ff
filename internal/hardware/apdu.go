package hardware

import (
	"encoding/binary"
	"fmt"

	"icx-wallet/pkg/bip32"
)

// ICX Ledger app 指令
const (
	CLA byte = 0xE0

	InsGetAddress   byte = 0x02
	InsSignTx       byte = 0x04
	InsGetAppConfig byte = 0x06

	P1First byte = 0x00
	P1More  byte = 0x80

	// ChunkSize 单个 APDU 数据部分的上限
	ChunkSize = 150
)

func buildAPDU(ins, p1, p2 byte, data []byte) []byte {
	apdu := make([]byte, 0, 5+len(data))
	apdu = append(apdu, CLA, ins, p1, p2, byte(len(data)))
	return append(apdu, data...)
}

// EncodePath 路径编码: 1 字节层数 + 每层 4 字节大端
func EncodePath(path string) ([]byte, error) {
	indexes, err := bip32.ParsePath(path)
	if err != nil {
		return nil, err
	}
	if len(indexes) == 0 || len(indexes) > 10 {
		return nil, fmt.Errorf("%w: %q", bip32.ErrInvalidPath, path)
	}
	buf := make([]byte, 1+4*len(indexes))
	buf[0] = byte(len(indexes))
	for i, idx := range indexes {
		binary.BigEndian.PutUint32(buf[1+4*i:], idx)
	}
	return buf, nil
}

// DecodePath EncodePath 的逆操作, 返回剩余字节
func DecodePath(data []byte) ([]uint32, []byte, error) {
	if len(data) < 1 {
		return nil, nil, fmt.Errorf("empty path")
	}
	n := int(data[0])
	if len(data) < 1+4*n {
		return nil, nil, fmt.Errorf("path truncated")
	}
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = binary.BigEndian.Uint32(data[1+4*i:])
	}
	return out, data[1+4*n:], nil
}

// signChunks 把路径和原始交易切分为签名 APDU 序列
// 第一片: path + 4 字节总长度 + 数据, 后续片只有数据
func signChunks(pathBuf, raw []byte) [][]byte {
	end := min(len(raw), ChunkSize-len(pathBuf)-4)

	first := make([]byte, 0, ChunkSize)
	first = append(first, pathBuf...)
	first = binary.BigEndian.AppendUint32(first, uint32(len(raw)))
	first = append(first, raw[:end]...)

	apdus := [][]byte{buildAPDU(InsSignTx, P1First, 0x00, first)}
	for offset := end; offset < len(raw); offset += ChunkSize {
		apdus = append(apdus, buildAPDU(InsSignTx, P1More, 0x00, raw[offset:min(len(raw), offset+ChunkSize)]))
	}
	return apdus
}
