package session

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icx-wallet/internal/rpc"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/cache"
	"icx-wallet/pkg/config"
	"icx-wallet/pkg/errno"
)

const (
	addrA = "hx0123456789abcdef0123456789abcdef01234567"
	addrB = "hx89abcdef0123456789abcdef0123456789abcdef"
)

func icx(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

type fakeReader struct {
	gate chan struct{} // 非空时 GetBalance 等待
}

func (f *fakeReader) GetBalance(ctx context.Context, _ string) (*big.Int, error) {
	if f.gate != nil {
		<-f.gate
	}
	return icx(5), nil
}

func (f *fakeReader) GetStake(context.Context, string) (*rpc.Stake, error) {
	return &rpc.Stake{Stake: icx(3), Unstaking: icx(1)}, nil
}

func (f *fakeReader) GetDelegation(context.Context, string) (*rpc.DelegationInfo, error) {
	return &rpc.DelegationInfo{
		TotalDelegated: icx(2),
		VotingPower:    icx(1),
		Delegations:    []rpc.Delegation{{Address: addrB, Value: icx(2)}},
	}, nil
}

func (f *fakeReader) QueryIScore(context.Context, string) (*rpc.IScore, error) {
	return &rpc.IScore{IScore: big.NewInt(1000), EstimatedICX: big.NewInt(1), BlockHeight: big.NewInt(10)}, nil
}

func newStore(t *testing.T, reader AccountReader) *Store {
	t.Helper()
	nets, err := NewNetworks(config.Default().Network)
	require.NoError(t, err)
	return NewStore(nets, reader, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
}

func TestOpenClose(t *testing.T) {
	s := newStore(t, &fakeReader{})

	_, err := s.Handle()
	assert.ErrorIs(t, err, errno.ErrNoSession)

	closed := 0
	h := wallet.Handle{Address: addrA, Kind: wallet.KindKeystore}
	require.NoError(t, s.Open(h, func() error { closed++; return nil }))

	got, err := s.Handle()
	require.NoError(t, err)
	assert.Equal(t, h, got)

	// 打开新会话会关闭旧会话
	require.NoError(t, s.Open(wallet.Handle{Address: addrB, Kind: wallet.KindICONex}))
	assert.Equal(t, 1, closed)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err = s.Handle()
	assert.ErrorIs(t, err, errno.ErrNoSession)
}

func TestOpenRejectsInvalidHandle(t *testing.T) {
	s := newStore(t, &fakeReader{})
	assert.Error(t, s.Open(wallet.Handle{Address: addrA, Kind: wallet.KindLedger}))
}

func TestRefreshAndMetrics(t *testing.T) {
	s := newStore(t, &fakeReader{})
	ctx := context.Background()

	// 没有会话时刷新是空操作
	assert.NoError(t, s.Refresh(ctx))
	_, err := s.Metrics(ctx)
	assert.ErrorIs(t, err, errno.ErrNoSession)

	require.NoError(t, s.Open(wallet.Handle{Address: addrA, Kind: wallet.KindKeystore}))
	m, err := s.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5", m.Balance.String())
	assert.Equal(t, "3", m.Staked.String())
	assert.Equal(t, "1", m.Unstaking.String())
	assert.Equal(t, "2", m.TotalDelegated.String())
	require.Len(t, m.Delegations, 1)
	assert.Equal(t, addrB, m.Delegations[0].Address)
	assert.Equal(t, "testnet", m.Network)
}

func TestRefreshDiscardedWhenSessionReplaced(t *testing.T) {
	reader := &fakeReader{gate: make(chan struct{})}
	s := newStore(t, reader)
	ctx := context.Background()
	require.NoError(t, s.Open(wallet.Handle{Address: addrA, Kind: wallet.KindKeystore}))

	done := make(chan error, 1)
	go func() { done <- s.Refresh(ctx) }()

	// 刷新进行中卸载钱包
	require.NoError(t, s.Close())
	close(reader.gate)
	assert.NoError(t, <-done)

	var m Metrics
	err := s.cache.Get(ctx, cache.MetricsKey("testnet", addrA), &m)
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestSwitchNetwork(t *testing.T) {
	s := newStore(t, &fakeReader{})
	require.NoError(t, s.Open(wallet.Handle{Address: addrA, Kind: wallet.KindKeystore}))
	assert.Equal(t, int64(80), s.Networks().NID())

	require.NoError(t, s.SwitchNetwork("mainnet"))
	assert.Equal(t, int64(1), s.Networks().NID())
	assert.Equal(t, "https://ctz.solidwallet.io/api/v3", s.Networks().Endpoint())

	_, err := s.Handle()
	assert.ErrorIs(t, err, errno.ErrNoSession, "切换网络会卸载钱包")

	assert.Error(t, s.SwitchNetwork("devnet"))
	assert.Equal(t, "mainnet", s.Networks().Ref())
}
