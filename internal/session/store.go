package session

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"icx-wallet/internal/rpc"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/amount"
	"icx-wallet/pkg/cache"
	"icx-wallet/pkg/errno"
	"icx-wallet/pkg/logger"
)

// AccountReader 查询账户指标所需的 RPC
type AccountReader interface {
	GetBalance(ctx context.Context, addr string) (*big.Int, error)
	GetStake(ctx context.Context, addr string) (*rpc.Stake, error)
	GetDelegation(ctx context.Context, addr string) (*rpc.DelegationInfo, error)
	QueryIScore(ctx context.Context, addr string) (*rpc.IScore, error)
}

// Closer 会话结束时释放资源, 例如关闭 Ledger 连接或丢弃内存私钥
type Closer func() error

type session struct {
	seq     uint64
	handle  wallet.Handle
	network string
	closers []Closer
}

// Store 持有当前解锁的钱包和缓存的账户指标. 同一时间只有一个会话
type Store struct {
	networks *Networks
	reader   AccountReader
	cache    cache.Cache
	ttl      time.Duration

	mu      sync.Mutex
	current *session
	seq     uint64
	log     *zap.Logger
}

func NewStore(networks *Networks, reader AccountReader, c cache.Cache, ttl time.Duration) *Store {
	if c == nil {
		c = cache.NewMemoryCache(ttl, 2*ttl)
	}
	return &Store{
		networks: networks,
		reader:   reader,
		cache:    c,
		ttl:      ttl,
		log:      logger.Named("session"),
	}
}

// Networks 会话使用的网络选择
func (s *Store) Networks() *Networks { return s.networks }

// Open 创建会话, 已有会话会先被关闭
func (s *Store) Open(h wallet.Handle, closers ...Closer) error {
	if err := h.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.current
	s.seq++
	s.current = &session{
		seq:     s.seq,
		handle:  h,
		network: s.networks.Ref(),
		closers: closers,
	}
	s.mu.Unlock()

	if prev != nil {
		s.release(prev)
	}
	s.log.Info("wallet unlocked", zap.String("wallet", h.String()), zap.String("network", s.networks.Ref()))
	return nil
}

// Close 结束会话. 没有会话时什么也不做
func (s *Store) Close() error {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	if prev == nil {
		return nil
	}
	err := s.release(prev)
	s.log.Info("wallet locked", zap.String("wallet", prev.handle.String()))
	return err
}

func (s *Store) release(sess *session) error {
	var errs []error
	for _, c := range sess.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	_ = s.cache.Delete(context.Background(), cache.MetricsKey(sess.network, sess.handle.Address))
	if err := errors.Join(errs...); err != nil {
		s.log.Warn("session release failed", zap.Error(err))
		return err
	}
	return nil
}

// Handle 当前钱包, 没有会话时返回 NoSession
func (s *Store) Handle() (wallet.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return wallet.Handle{}, errno.Wrap(errno.ErrNoSession, nil)
	}
	return s.current.handle, nil
}

// SwitchNetwork 切换网络并卸载当前钱包
func (s *Store) SwitchNetwork(ref string) error {
	if _, err := s.networks.switchTo(ref); err != nil {
		return err
	}
	s.log.Info("network switched", zap.String("network", ref))
	return s.Close()
}

// Refresh 并发查询余额, 质押, 委托和 I-Score 并写入缓存.
// 没有会话或期间会话被替换时结果直接丢弃, 不返回错误
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	sess := s.current
	s.mu.Unlock()
	if sess == nil {
		return nil
	}
	addr := sess.handle.Address

	var (
		balance *big.Int
		stake   *rpc.Stake
		deleg   *rpc.DelegationInfo
		iscore  *rpc.IScore
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		balance, err = s.reader.GetBalance(gctx, addr)
		return err
	})
	g.Go(func() (err error) {
		stake, err = s.reader.GetStake(gctx, addr)
		return err
	})
	g.Go(func() (err error) {
		deleg, err = s.reader.GetDelegation(gctx, addr)
		return err
	})
	g.Go(func() (err error) {
		iscore, err = s.reader.QueryIScore(gctx, addr)
		return err
	})
	if err := g.Wait(); err != nil {
		return errno.Wrap(errno.ErrRPC, err)
	}

	m := &Metrics{
		Address:        addr,
		Network:        sess.network,
		Balance:        amount.ToDisplay(balance),
		Staked:         amount.ToDisplay(stake.Stake),
		Unstaking:      amount.ToDisplay(stake.Unstaking),
		TotalDelegated: amount.ToDisplay(deleg.TotalDelegated),
		VotingPower:    amount.ToDisplay(deleg.VotingPower),
		Delegations:    make([]DelegationView, 0, len(deleg.Delegations)),
		IScore:         amount.ToDisplay(iscore.IScore),
		EstimatedICX:   amount.ToDisplay(iscore.EstimatedICX),
		RefreshedAt:    time.Now(),
	}
	for _, d := range deleg.Delegations {
		m.Delegations = append(m.Delegations, DelegationView{Address: d.Address, Value: amount.ToDisplay(d.Value)})
	}

	s.mu.Lock()
	stale := s.current == nil || s.current.seq != sess.seq
	s.mu.Unlock()
	if stale {
		s.log.Debug("session changed during refresh, discarding metrics", zap.String("address", addr))
		return nil
	}
	return s.cache.Set(ctx, cache.MetricsKey(sess.network, addr), m, s.ttl)
}

// Metrics 读取缓存的账户指标, 未命中时先刷新
func (s *Store) Metrics(ctx context.Context) (*Metrics, error) {
	s.mu.Lock()
	sess := s.current
	s.mu.Unlock()
	if sess == nil {
		return nil, errno.Wrap(errno.ErrNoSession, nil)
	}

	key := cache.MetricsKey(sess.network, sess.handle.Address)
	var m Metrics
	err := s.cache.Get(ctx, key, &m)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("metrics cache read failed", zap.Error(err))
	}

	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	if err := s.cache.Get(ctx, key, &m); err != nil {
		return nil, errno.Wrap(errno.ErrNoSession, nil)
	}
	return &m, nil
}
