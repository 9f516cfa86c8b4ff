package signer

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icx-wallet/internal/hardware"
	"icx-wallet/internal/relay"
	"icx-wallet/internal/transaction"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/bip32"
	"icx-wallet/pkg/config"
	"icx-wallet/pkg/crypto_util"
	"icx-wallet/pkg/errno"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

const recipient = "hx0123456789abcdef0123456789abcdef01234567"

var testPath = bip32.AccountPath(bip32.ICXBasePath, 0)

type noCosts struct{}

func (noCosts) GetStepCosts(context.Context) (map[string]*big.Int, error) {
	return map[string]*big.Int{"default": big.NewInt(100000)}, nil
}

func buildTransfer(t *testing.T, from string) *transaction.Unsigned {
	t.Helper()
	b := transaction.NewBuilder(noCosts{}, func() int64 { return 80 }, config.WalletConfig{GovernanceStepCost: 1000000, QueryStepCosts: true})
	u, err := b.Build(context.Background(), transaction.KindTransfer, transaction.Params{
		From:  from,
		To:    recipient,
		Value: big.NewInt(1e18),
	})
	require.NoError(t, err)
	return u
}

func TestKeystoreSigner(t *testing.T) {
	keys := NewKeyStore()
	priv, err := crypto_util.GenerateSecp256k1Key()
	require.NoError(t, err)
	addr, err := keys.Put(priv)
	require.NoError(t, err)
	assert.True(t, keys.Has(addr))

	s := NewKeystoreSigner(keys)
	u := buildTransfer(t, addr)
	signed, err := s.Sign(context.Background(), u, wallet.Handle{Address: addr, Kind: wallet.KindKeystore})
	require.NoError(t, err)
	assert.Equal(t, u.Hash(), signed.Hash())

	keys.Forget(addr)
	_, err = s.Sign(context.Background(), u, wallet.Handle{Address: addr, Kind: wallet.KindKeystore})
	assert.ErrorIs(t, err, errno.ErrSigningFailed)
}

func newEmulator(t *testing.T, approve hardware.ApproveFunc) (*hardware.Emulator, string) {
	t.Helper()
	emu, err := hardware.NewEmulator(testMnemonic, approve)
	require.NoError(t, err)
	addr, err := emu.Address(testPath)
	require.NoError(t, err)
	return emu, addr
}

func TestHardwareSigner(t *testing.T) {
	emu, addr := newEmulator(t, hardware.AutoApprove)

	var opens int32
	s := NewHardwareSigner(func() (hardware.Transport, error) {
		atomic.AddInt32(&opens, 1)
		return emu.Opener()()
	})
	h := wallet.Handle{Address: addr, Kind: wallet.KindLedger, Path: testPath}

	for i := 0; i < 2; i++ {
		u := buildTransfer(t, addr)
		signed, err := s.Sign(context.Background(), u, h)
		require.NoError(t, err)
		assert.Equal(t, u.Hash(), signed.Hash())
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&opens), "连接应被复用")

	got, err := s.Address(context.Background(), testPath, false)
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	require.NoError(t, s.Close())
	assert.True(t, emu.Closed())
}

func TestHardwareSignerRejected(t *testing.T) {
	emu, addr := newEmulator(t, func(string, []byte) bool { return false })
	s := NewHardwareSigner(emu.Opener())

	_, err := s.Sign(context.Background(), buildTransfer(t, addr), wallet.Handle{Address: addr, Kind: wallet.KindLedger, Path: testPath})
	assert.ErrorIs(t, err, errno.ErrUserRejected)
}

func TestHardwareSignerOpenFailure(t *testing.T) {
	s := NewHardwareSigner(func() (hardware.Transport, error) {
		return nil, assert.AnError
	})
	h := wallet.Handle{Address: recipient, Kind: wallet.KindLedger, Path: testPath}
	_, err := s.Sign(context.Background(), buildTransfer(t, recipient), h)
	assert.ErrorIs(t, err, errno.ErrDeviceError)
}

func TestHardwareSignerCancel(t *testing.T) {
	release := make(chan struct{})
	emu, addr := newEmulator(t, func(string, []byte) bool {
		<-release
		return true
	})
	defer close(release)
	s := NewHardwareSigner(emu.Opener())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := s.Sign(ctx, buildTransfer(t, addr), wallet.Handle{Address: addr, Kind: wallet.KindLedger, Path: testPath})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRelaySigner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	priv, err := crypto_util.GenerateSecp256k1Key()
	require.NoError(t, err)
	keys := NewKeyStore()
	addr, err := keys.Put(priv)
	require.NoError(t, err)

	bus := relay.NewFeedBus()
	defer bus.Close()

	// 模拟扩展: 用私钥对收到的哈希签名
	err = bus.Subscribe(ctx, relay.TopicRequest, func(msg *relay.Message) error {
		var req relay.Event
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return err
		}
		var p relay.SigningPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return err
		}
		digest, err := hex.DecodeString(p.Hash)
		if err != nil {
			return err
		}
		sig, err := crypto_util.SignRecoverable(priv, digest)
		if err != nil {
			return err
		}
		resp, _ := relay.NewEvent(req.ID, relay.ResponseSigning, base64.StdEncoding.EncodeToString(sig))
		raw, _ := json.Marshal(resp)
		return bus.Publish(ctx, relay.TopicResponse, resp.ID, raw)
	})
	require.NoError(t, err)

	client := relay.NewClient(bus, "", "")
	require.NoError(t, client.Start(ctx))

	u := buildTransfer(t, addr)
	signed, err := NewRelaySigner(client).Sign(ctx, u, wallet.Handle{Address: addr, Kind: wallet.KindICONex})
	require.NoError(t, err)
	assert.Equal(t, u.Hash(), signed.Hash())
}

// fakeSigner 记录调用, block 非空时阻塞直到关闭
type fakeSigner struct {
	calls   int32
	started chan struct{}
	block   chan struct{}
}

func (f *fakeSigner) Sign(ctx context.Context, u *transaction.Unsigned, h wallet.Handle) (*transaction.Signed, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, errno.New(errno.ErrSigningFailed, "fake")
}

func TestDispatcherRoutesByKind(t *testing.T) {
	ks, hw, rl := &fakeSigner{}, &fakeSigner{}, &fakeSigner{}
	d := NewDispatcher(Backends{Keystore: ks, Hardware: hw, Relay: rl}, nil)
	u := buildTransfer(t, recipient)
	ctx := context.Background()

	_, _ = d.Sign(ctx, u, wallet.Handle{Address: recipient, Kind: wallet.KindLedger, Path: testPath})
	assert.Equal(t, int32(0), atomic.LoadInt32(&ks.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hw.calls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&rl.calls))

	_, _ = d.Sign(ctx, u, wallet.Handle{Address: recipient, Kind: wallet.KindICONex})
	_, _ = d.Sign(ctx, u, wallet.Handle{Address: recipient, Kind: wallet.KindKeystore})
	assert.Equal(t, int32(1), atomic.LoadInt32(&ks.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hw.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&rl.calls))

	// 缺少路径的 ledger 钱包在派发前被拒绝
	_, err := d.Sign(ctx, u, wallet.Handle{Address: recipient, Kind: wallet.KindLedger})
	assert.ErrorIs(t, err, errno.ErrSigningFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hw.calls))
}

func TestDispatcherMissingBackend(t *testing.T) {
	d := NewDispatcher(Backends{}, nil)
	_, err := d.Sign(context.Background(), buildTransfer(t, recipient), wallet.Handle{Address: recipient, Kind: wallet.KindKeystore})
	assert.ErrorIs(t, err, errno.ErrSigningFailed)
}

func TestDispatcherRejectsSecondSign(t *testing.T) {
	rl := &fakeSigner{started: make(chan struct{}, 1), block: make(chan struct{})}
	d := NewDispatcher(Backends{Relay: rl}, nil)
	u := buildTransfer(t, recipient)
	h := wallet.Handle{Address: recipient, Kind: wallet.KindICONex}

	done := make(chan error, 1)
	go func() {
		_, err := d.Sign(context.Background(), u, h)
		done <- err
	}()
	<-rl.started

	_, err := d.Sign(context.Background(), u, h)
	assert.ErrorIs(t, err, errno.ErrSignInFlight)
	assert.ErrorIs(t, err, errno.ErrSigningFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&rl.calls), "第二个请求不能排队")

	close(rl.block)
	<-done

	// 第一个请求结束后锁被释放
	rl.block = nil
	rl.started = nil
	_, err = d.Sign(context.Background(), u, h)
	assert.NotErrorIs(t, err, errno.ErrSignInFlight)
}

func TestDispatcherKeystoreNotSerialized(t *testing.T) {
	ks := &fakeSigner{started: make(chan struct{}, 2), block: make(chan struct{})}
	d := NewDispatcher(Backends{Keystore: ks}, nil)
	u := buildTransfer(t, recipient)
	h := wallet.Handle{Address: recipient, Kind: wallet.KindKeystore}

	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, _ = d.Sign(context.Background(), u, h)
			done <- struct{}{}
		}()
	}
	<-ks.started
	<-ks.started
	close(ks.block)
	<-done
	<-done
	assert.Equal(t, int32(2), atomic.LoadInt32(&ks.calls))
}
