package signer

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"icx-wallet/internal/transaction"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/errno"
	"icx-wallet/pkg/logger"
	"icx-wallet/pkg/monitor"
	"icx-wallet/pkg/utils/lock"
)

// SignLockTTL 签名锁的过期时间, 只用于进程崩溃后的清理, 不限制等待时长
const SignLockTTL = 30 * time.Minute

// Backends 各钱包类型对应的签名后端, 未配置的留空
type Backends struct {
	Keystore Signer
	Hardware Signer
	Relay    Signer
}

// Dispatcher 按 Handle.Kind 选择签名后端.
// Ledger 和 ICONex 每个钱包同一时间只允许一个签名请求, 第二个直接拒绝
type Dispatcher struct {
	backends Backends
	locks    lock.DistributedLock
	log      *zap.Logger
}

func NewDispatcher(b Backends, locks lock.DistributedLock) *Dispatcher {
	if locks == nil {
		locks = lock.NewLocalLock()
	}
	return &Dispatcher{
		backends: b,
		locks:    locks,
		log:      logger.Named("signer"),
	}
}

func (d *Dispatcher) Sign(ctx context.Context, u *transaction.Unsigned, h wallet.Handle) (*transaction.Signed, error) {
	if err := h.Validate(); err != nil {
		return nil, errno.Wrap(errno.ErrSigningFailed, err)
	}

	var (
		backend   Signer
		exclusive bool
	)
	switch h.Kind {
	case wallet.KindKeystore:
		backend = d.backends.Keystore
	case wallet.KindLedger:
		backend, exclusive = d.backends.Hardware, true
	case wallet.KindICONex:
		backend, exclusive = d.backends.Relay, true
	}
	if backend == nil {
		return nil, errno.New(errno.ErrSigningFailed, "no signer configured for %s wallets", h.Kind)
	}

	if exclusive {
		key := "sign:" + h.Address
		ok, err := d.locks.Acquire(ctx, key, SignLockTTL)
		if err != nil {
			return nil, errno.Wrap(errno.ErrSigningFailed, err)
		}
		if !ok {
			return nil, signInFlight(h)
		}
		defer func() {
			// ctx 可能已取消, 释放锁不能依赖它
			if err := d.locks.Release(context.Background(), key); err != nil {
				d.log.Warn("release sign lock failed", zap.String("key", key), zap.Error(err))
			}
		}()
	}

	start := time.Now()
	signed, err := backend.Sign(ctx, u, h)
	monitor.Business.SignDuration.WithLabelValues(string(h.Kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		code, _ := errno.Decode(err)
		monitor.Business.SignFailuresTotal.WithLabelValues(string(h.Kind), strconv.Itoa(code)).Inc()
		d.log.Info("sign failed", zap.String("wallet", h.String()), zap.Error(err))
		return nil, err
	}
	d.log.Debug("transaction signed", zap.String("wallet", h.String()), zap.String("hash", signed.Hash()))
	return signed, nil
}

// signInFlight 是 SigningFailed 的子类, errors.Is 对两者都成立
func signInFlight(h wallet.Handle) error {
	return errno.Wrap(errno.ErrSignInFlight,
		errno.New(errno.ErrSigningFailed, "a signing request for %s is already pending", h.Address))
}
