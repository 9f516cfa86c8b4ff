package hardware

import (
	"encoding/binary"
	"sync"

	"go.uber.org/zap"

	"icx-wallet/pkg/bip32"
	"icx-wallet/pkg/bip39"
	"icx-wallet/pkg/crypto_util"
	"icx-wallet/pkg/logger"
)

// ApproveFunc 模拟用户在设备上的确认, 返回 false 表示拒绝. 可以阻塞
type ApproveFunc func(path string, raw []byte) bool

// AutoApprove 总是确认
func AutoApprove(string, []byte) bool { return true }

// Emulator 软件实现的 ICX app, 用于开发和测试. 从助记词按路径派生密钥
type Emulator struct {
	mu        sync.Mutex
	wallet    *bip32.Wallet
	approve   ApproveFunc
	version   Version
	pending   *pendingSign
	exchanges int
	closed    bool
	log       *zap.Logger
}

type pendingSign struct {
	path  string
	total int
	buf   []byte
}

func NewEmulator(mnemonic string, approve ApproveFunc) (*Emulator, error) {
	seed, err := bip39.NewMnemonicService().Seed(mnemonic, "")
	if err != nil {
		return nil, err
	}
	w, err := bip32.NewMasterKeyFromSeed(seed)
	if err != nil {
		return nil, err
	}
	if approve == nil {
		approve = AutoApprove
	}
	return &Emulator{
		wallet:  w,
		approve: approve,
		version: Version{Major: 1, Minor: 1, Patch: 3},
		log:     logger.Named("ledger-emulator"),
	}, nil
}

// Opener 每次打开都返回同一个模拟设备
func (e *Emulator) Opener() Opener {
	return func() (Transport, error) {
		e.mu.Lock()
		e.closed = false
		e.mu.Unlock()
		return e, nil
	}
}

// Exchanges 收到的 APDU 数量
func (e *Emulator) Exchanges() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exchanges
}

// Closed 是否已被关闭
func (e *Emulator) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Emulator) Close() error {
	e.mu.Lock()
	e.closed = true
	e.pending = nil
	e.mu.Unlock()
	return nil
}

// Address 返回路径对应的地址, 测试用
func (e *Emulator) Address(path string) (string, error) {
	key, err := e.wallet.DerivePath(path)
	if err != nil {
		return "", err
	}
	return key.Address()
}

func (e *Emulator) Exchange(cmd []byte) ([]byte, error) {
	e.mu.Lock()
	e.exchanges++
	e.mu.Unlock()

	if len(cmd) < 5 {
		return nil, &StatusError{Code: SWWrongData}
	}
	if cmd[0] != CLA {
		return nil, &StatusError{Code: SWClaNotSupported}
	}
	ins, p1, p2, lc := cmd[1], cmd[2], cmd[3], int(cmd[4])
	data := cmd[5:]
	if len(data) != lc {
		return nil, &StatusError{Code: SWWrongData}
	}

	switch ins {
	case InsGetAppConfig:
		return []byte{e.version.Major, e.version.Minor, e.version.Patch}, nil
	case InsGetAddress:
		return e.getAddress(data, p1 == 0x01, p2 == 0x01)
	case InsSignTx:
		return e.sign(data, p1)
	default:
		return nil, &StatusError{Code: SWInsNotSupported}
	}
}

func (e *Emulator) getAddress(data []byte, display, withChainCode bool) ([]byte, error) {
	indexes, _, err := DecodePath(data)
	if err != nil {
		return nil, &StatusError{Code: SWWrongData}
	}
	path := bip32.FormatPath(indexes)
	key, err := e.wallet.DerivePath(path)
	if err != nil {
		return nil, &StatusError{Code: SWWrongData}
	}
	pub, err := key.PublicKey()
	if err != nil {
		return nil, &StatusError{Code: SWWrongData}
	}
	addr, err := key.Address()
	if err != nil {
		return nil, &StatusError{Code: SWWrongData}
	}

	if display && !e.approve(path, []byte(addr)) {
		return nil, &StatusError{Code: SWConditionsNotSatisfied}
	}

	resp := []byte{byte(len(pub))}
	resp = append(resp, pub...)
	resp = append(resp, byte(len(addr)))
	resp = append(resp, addr...)
	if withChainCode {
		resp = append(resp, key.ChainCode()...)
	}
	return resp, nil
}

func (e *Emulator) sign(data []byte, p1 byte) ([]byte, error) {
	e.mu.Lock()
	switch p1 {
	case P1First:
		indexes, rest, err := DecodePath(data)
		if err != nil || len(rest) < 4 {
			e.mu.Unlock()
			return nil, &StatusError{Code: SWWrongData}
		}
		e.pending = &pendingSign{
			path:  bip32.FormatPath(indexes),
			total: int(binary.BigEndian.Uint32(rest)),
			buf:   append([]byte(nil), rest[4:]...),
		}
	case P1More:
		if e.pending == nil {
			e.mu.Unlock()
			return nil, &StatusError{Code: SWWrongData}
		}
		e.pending.buf = append(e.pending.buf, data...)
	default:
		e.mu.Unlock()
		return nil, &StatusError{Code: SWWrongData}
	}

	p := e.pending
	if len(p.buf) < p.total {
		e.mu.Unlock()
		return nil, nil
	}
	e.pending = nil
	e.mu.Unlock()

	if len(p.buf) != p.total {
		return nil, &StatusError{Code: SWWrongData}
	}

	// 等待 "用户" 确认, 不持有锁
	if !e.approve(p.path, p.buf) {
		e.log.Info("signing rejected on device", zap.String("path", p.path))
		return nil, &StatusError{Code: SWConditionsNotSatisfied}
	}

	key, err := e.wallet.DerivePath(p.path)
	if err != nil {
		return nil, &StatusError{Code: SWWrongData}
	}
	priv, err := key.PrivateKey()
	if err != nil {
		return nil, &StatusError{Code: SWWrongData}
	}
	hash := crypto_util.SHA3256(p.buf)
	sig, err := crypto_util.SignRecoverable(priv, hash)
	if err != nil {
		return nil, &StatusError{Code: SWWrongData}
	}
	return append(sig, hash...), nil
}
