package signer

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"icx-wallet/internal/hardware"
	"icx-wallet/internal/transaction"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/errno"
	"icx-wallet/pkg/logger"
)

// HardwareSigner 通过 Ledger ICX app 签名. 设备连接在第一次使用时打开, 会话期间复用
type HardwareSigner struct {
	open hardware.Opener

	mu        sync.Mutex // 保护 transport/app
	transport hardware.Transport
	app       *hardware.AppICX

	// 同一时间只允许一组 APDU 在设备上交互.
	// ctx 取消后后台交互可能仍在进行, 下一次签名需要等它结束
	exchange sync.Mutex
	log      *zap.Logger
}

func NewHardwareSigner(open hardware.Opener) *HardwareSigner {
	if open == nil {
		open = hardware.LedgerOpener()
	}
	return &HardwareSigner{
		open: open,
		log:  logger.Named("hardware-signer"),
	}
}

func (s *HardwareSigner) device() (*hardware.AppICX, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.app != nil {
		return s.app, nil
	}
	t, err := s.open()
	if err != nil {
		return nil, err
	}
	s.transport = t
	s.app = hardware.NewAppICX(t)
	if v, err := s.app.GetVersion(); err == nil {
		s.log.Info("ledger connected", zap.String("app_version", v.String()))
	}
	return s.app, nil
}

func (s *HardwareSigner) Sign(ctx context.Context, u *transaction.Unsigned, h wallet.Handle) (*transaction.Signed, error) {
	if h.Path == "" {
		return nil, errno.New(errno.ErrSigningFailed, "ledger wallet %s has no derivation path", h.Address)
	}
	app, err := s.device()
	if err != nil {
		return nil, errno.Wrap(errno.ErrDeviceError, err)
	}

	raw := []byte(u.Serialize())
	type result struct {
		sig, hash []byte
		err       error
	}
	done := make(chan result, 1)
	go func() {
		s.exchange.Lock()
		defer s.exchange.Unlock()
		sig, hash, err := app.SignTransaction(h.Path, raw)
		done <- result{sig: sig, hash: hash, err: err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		// 设备上的确认无法撤回, 只是不再等待
		return nil, ctx.Err()
	}

	if r.err != nil {
		if hardware.IsUserRejected(r.err) {
			return nil, errno.Wrap(errno.ErrUserRejected, r.err)
		}
		s.log.Warn("ledger sign failed", zap.String("path", h.Path), zap.Error(r.err))
		return nil, errno.Wrap(errno.ErrDeviceError, r.err)
	}
	if !bytes.Equal(r.hash, u.HashBytes()) {
		return nil, errno.New(errno.ErrDeviceError, "device hash %x does not match transaction hash %s", r.hash, u.Hash())
	}
	return transaction.NewSigned(u, r.sig)
}

// Address 读取路径对应的地址. display 为 true 时需要在设备上确认
func (s *HardwareSigner) Address(ctx context.Context, path string, display bool) (string, error) {
	app, err := s.device()
	if err != nil {
		return "", errno.Wrap(errno.ErrDeviceError, err)
	}

	type result struct {
		info *hardware.AddressInfo
		err  error
	}
	done := make(chan result, 1)
	go func() {
		s.exchange.Lock()
		defer s.exchange.Unlock()
		info, err := app.GetAddress(path, display, false)
		done <- result{info: info, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if hardware.IsUserRejected(r.err) {
				return "", errno.Wrap(errno.ErrUserRejected, r.err)
			}
			return "", errno.Wrap(errno.ErrDeviceError, r.err)
		}
		return r.info.Address, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close 释放设备, 会话卸载时调用. 之后再次签名会重新打开
func (s *HardwareSigner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transport == nil {
		return nil
	}
	err := s.transport.Close()
	s.transport = nil
	s.app = nil
	if err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	return nil
}
