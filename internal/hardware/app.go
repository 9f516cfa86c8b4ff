package hardware

import (
	"errors"
	"fmt"
)

// Version ICX app 版本
type Version struct {
	Major, Minor, Patch byte
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AddressInfo getAddress 的返回
type AddressInfo struct {
	PublicKey []byte
	Address   string
	ChainCode []byte
}

// AppICX Ledger ICX app 的指令封装, 不持有 transport 的生命周期
type AppICX struct {
	t Transport
}

func NewAppICX(t Transport) *AppICX {
	return &AppICX{t: t}
}

// GetVersion 读取 app 版本
func (a *AppICX) GetVersion() (Version, error) {
	resp, err := a.t.Exchange(buildAPDU(InsGetAppConfig, 0x00, 0x00, nil))
	if err != nil {
		return Version{}, err
	}
	if len(resp) < 3 {
		return Version{}, errors.New("short app configuration response")
	}
	return Version{Major: resp[0], Minor: resp[1], Patch: resp[2]}, nil
}

// GetAddress display=true 时需要在设备上确认
func (a *AppICX) GetAddress(path string, display, chainCode bool) (*AddressInfo, error) {
	pathBuf, err := EncodePath(path)
	if err != nil {
		return nil, err
	}
	resp, err := a.t.Exchange(buildAPDU(InsGetAddress, boolByte(display), boolByte(chainCode), pathBuf))
	if err != nil {
		return nil, err
	}

	// pubKeyLen | pubKey | addrLen | addr(ascii) | [chainCode 32]
	if len(resp) < 1 {
		return nil, errors.New("empty getAddress response")
	}
	pkLen := int(resp[0])
	if len(resp) < 1+pkLen+1 {
		return nil, errors.New("truncated getAddress response")
	}
	info := &AddressInfo{PublicKey: append([]byte(nil), resp[1:1+pkLen]...)}
	rest := resp[1+pkLen:]
	addrLen := int(rest[0])
	if len(rest) < 1+addrLen {
		return nil, errors.New("truncated getAddress response")
	}
	info.Address = string(rest[1 : 1+addrLen])
	rest = rest[1+addrLen:]
	if chainCode {
		if len(rest) < 32 {
			return nil, errors.New("missing chain code")
		}
		info.ChainCode = append([]byte(nil), rest[:32]...)
	}
	return info, nil
}

// SignTransaction 发送规范化序列化后的交易, 设备计算哈希并在用户确认后签名.
// 返回 65 字节签名和设备计算的 32 字节哈希. 阻塞直到设备响应
func (a *AppICX) SignTransaction(path string, raw []byte) (signature, hash []byte, err error) {
	pathBuf, err := EncodePath(path)
	if err != nil {
		return nil, nil, err
	}

	var resp []byte
	for _, apdu := range signChunks(pathBuf, raw) {
		resp, err = a.t.Exchange(apdu)
		if err != nil {
			return nil, nil, err
		}
	}
	if len(resp) < 65+32 {
		return nil, nil, fmt.Errorf("unexpected sign response length %d", len(resp))
	}
	return append([]byte(nil), resp[:65]...), append([]byte(nil), resp[65:97]...), nil
}

func boolByte(b bool) byte {
	if b {
		return 0x01
	}
	return 0x00
}
