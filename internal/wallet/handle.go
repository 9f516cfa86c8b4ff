package wallet

import (
	"fmt"

	"icx-wallet/pkg/address"
	"icx-wallet/pkg/bip32"
	"icx-wallet/pkg/errno"
)

// Kind 记录钱包由哪种签名后端控制
type Kind string

const (
	KindKeystore Kind = "keystore"
	KindLedger   Kind = "ledger"
	KindICONex   Kind = "iconex"
)

// Handle 已解锁钱包的标识, 只由 session 持有
type Handle struct {
	Address string `json:"address"`
	Kind    Kind   `json:"kind"`
	// Path Ledger 派生路径, 其他类型为空
	Path string `json:"path,omitempty"`
}

// NewHandle 校验并构造 Handle
func NewHandle(addr string, kind Kind, path string) (Handle, error) {
	h := Handle{Address: addr, Kind: kind, Path: path}
	return h, h.Validate()
}

func (h Handle) Validate() error {
	if !address.IsEOA(h.Address) {
		return errno.New(errno.ErrInvalidAddress, "invalid wallet address %q", h.Address)
	}
	switch h.Kind {
	case KindKeystore, KindICONex:
		if h.Path != "" {
			return fmt.Errorf("%s wallet must not carry a derivation path", h.Kind)
		}
	case KindLedger:
		if _, err := bip32.ParsePath(h.Path); err != nil || h.Path == "" {
			return fmt.Errorf("ledger wallet needs a derivation path: %q", h.Path)
		}
	default:
		return fmt.Errorf("unknown wallet kind %q", h.Kind)
	}
	return nil
}

func (h Handle) String() string {
	if h.Path != "" {
		return fmt.Sprintf("%s(%s @ %s)", h.Kind, h.Address, h.Path)
	}
	return fmt.Sprintf("%s(%s)", h.Kind, h.Address)
}
