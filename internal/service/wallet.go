package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"icx-wallet/internal/hardware"
	"icx-wallet/internal/model"
	"icx-wallet/internal/relay"
	"icx-wallet/internal/rpc"
	"icx-wallet/internal/session"
	"icx-wallet/internal/signer"
	"icx-wallet/internal/transaction"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/address"
	"icx-wallet/pkg/bip32"
	"icx-wallet/pkg/cache"
	"icx-wallet/pkg/config"
	"icx-wallet/pkg/errno"
	"icx-wallet/pkg/keystore"
	"icx-wallet/pkg/logger"
	"icx-wallet/pkg/utils/lock"
)

// Deps 可选的外部依赖, 为空时使用进程内实现
type Deps struct {
	Redis *redis.Client
	DB    *gorm.DB
	// Bus 为空时按 relay.transport 创建
	Bus relay.Bus
	// Opener 为空时按 hardware.transport 创建
	Opener hardware.Opener
	// Approve 模拟设备上的确认, 只在 hardware.transport=emulator 且未开启 auto_approve 时使用
	Approve hardware.ApproveFunc
}

// Wallet 把会话, 签名后端和交易流水线组合在一起, CLI 和 HTTP 服务共用
type Wallet struct {
	cfg config.Config

	Networks *session.Networks
	RPC      *rpc.Client
	Store    *session.Store
	Keys     *signer.KeyStore
	Hardware *signer.HardwareSigner
	Relay    *relay.Client
	Bus      relay.Bus
	Pipeline *Pipeline
	Journal  model.Journal
	Locks    lock.DistributedLock

	mu     sync.Mutex
	chains map[string]*Chain
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

func NewWallet(ctx context.Context, cfg config.Config, deps Deps) (*Wallet, error) {
	nets, err := session.NewNetworks(cfg.Network)
	if err != nil {
		return nil, err
	}
	client := rpc.NewClient(nets.Endpoint, cfg.Network.QueryRetries, cfg.Network.Timeout)

	// 锁和缓存: 有 Redis 时跨实例共享
	var (
		locks   lock.DistributedLock = lock.NewLocalLock()
		metrics cache.Cache          = cache.NewMemoryCache(cfg.Session.CacheTTL, 2*cfg.Session.CacheTTL)
	)
	if deps.Redis != nil {
		locks = lock.NewRedisLock(deps.Redis)
		if cfg.Session.UseRedisCache {
			metrics = cache.NewMultiLevelCache(metrics, cache.NewRedisCache(deps.Redis))
		}
	}

	var journal model.Journal = model.NopJournal{}
	if deps.DB != nil {
		j, err := model.NewGormJournal(deps.DB)
		if err != nil {
			return nil, err
		}
		journal = j
	}

	opener := deps.Opener
	if opener == nil {
		opener, err = newOpener(cfg.Hardware, deps.Approve)
		if err != nil {
			return nil, err
		}
	}

	bus := deps.Bus
	if bus == nil {
		bus, err = relay.New(cfg.Relay, deps.Redis, cfg.Kafka)
		if err != nil {
			return nil, err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	relayClient := relay.NewClient(bus, cfg.Relay.RequestTopic, cfg.Relay.ResponseTopic)
	if err := relayClient.Start(runCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("start relay client: %w", err)
	}

	keys := signer.NewKeyStore()
	hw := signer.NewHardwareSigner(opener)
	dispatcher := signer.NewDispatcher(signer.Backends{
		Keystore: signer.NewKeystoreSigner(keys),
		Hardware: hw,
		Relay:    signer.NewRelaySigner(relayClient),
	}, locks)

	builder := transaction.NewBuilder(client, nets.NID, cfg.Wallet)
	submitter := NewSubmitter(client, locks, journal, nets.Ref)
	poller := NewPoller(client, cfg.Poll.Interval, journal)

	return &Wallet{
		cfg:      cfg,
		Networks: nets,
		RPC:      client,
		Store:    session.NewStore(nets, client, metrics, cfg.Session.CacheTTL),
		Keys:     keys,
		Hardware: hw,
		Relay:    relayClient,
		Bus:      bus,
		Pipeline: NewPipeline(builder, dispatcher, submitter, poller),
		Journal:  journal,
		Locks:    locks,
		chains:   make(map[string]*Chain),
		ctx:      runCtx,
		cancel:   cancel,
		log:      logger.Named("wallet"),
	}, nil
}

func newOpener(cfg config.HardwareConfig, approve hardware.ApproveFunc) (hardware.Opener, error) {
	switch cfg.Transport {
	case "", "ledger":
		return hardware.LedgerOpener(), nil
	case "emulator":
		if cfg.AutoApprove || approve == nil {
			approve = hardware.AutoApprove
		}
		emu, err := hardware.NewEmulator(cfg.EmulatorMnemonic, approve)
		if err != nil {
			return nil, fmt.Errorf("ledger emulator: %w", err)
		}
		return emu.Opener(), nil
	default:
		return nil, fmt.Errorf("unknown hardware transport %q", cfg.Transport)
	}
}

// UnlockKeystore 解密 keystore 并打开会话
func (w *Wallet) UnlockKeystore(ks *keystore.EncryptedKeyJSON, password string) (wallet.Handle, error) {
	priv, addr, err := w.Keys.Decrypt(ks, password)
	if err != nil {
		return wallet.Handle{}, err
	}
	h, err := wallet.NewHandle(addr, wallet.KindKeystore, "")
	if err != nil {
		return wallet.Handle{}, err
	}
	// Open 会先释放旧会话; 同一地址重复解锁时旧会话会 Forget 这个地址, 所以私钥在 Open 之后保存
	if err := w.Store.Open(h, func() error {
		w.Keys.Forget(addr)
		return nil
	}); err != nil {
		return wallet.Handle{}, err
	}
	if _, err := w.Keys.Put(priv); err != nil {
		_ = w.Store.Close()
		return wallet.Handle{}, err
	}
	return h, nil
}

// LedgerPath 第 index 个账户的派生路径
func (w *Wallet) LedgerPath(index int) string {
	base := w.cfg.Wallet.LedgerBasePath
	if base == "" {
		base = bip32.ICXBasePath
	}
	return bip32.AccountPath(base, index)
}

// UnlockLedger 读取 Ledger 上第 index 个账户并打开会话
func (w *Wallet) UnlockLedger(ctx context.Context, index int) (wallet.Handle, error) {
	path := w.LedgerPath(index)
	// 旧会话的 closer 会关闭设备连接, 必须在读取地址之前释放
	if err := w.Store.Close(); err != nil {
		w.log.Warn("release previous session", zap.Error(err))
	}
	addr, err := w.Hardware.Address(ctx, path, false)
	if err != nil {
		return wallet.Handle{}, err
	}
	h, err := wallet.NewHandle(addr, wallet.KindLedger, path)
	if err != nil {
		return wallet.Handle{}, err
	}
	if err := w.Store.Open(h, w.Hardware.Close); err != nil {
		return wallet.Handle{}, err
	}
	return h, nil
}

// UnlockICONex 通过扩展选择账户并打开会话
func (w *Wallet) UnlockICONex(ctx context.Context) (wallet.Handle, error) {
	ok, err := w.Relay.HasAccount(ctx)
	if err != nil {
		return wallet.Handle{}, err
	}
	if !ok {
		return wallet.Handle{}, errno.New(errno.ErrNoSession, "ICONex has no account")
	}
	addr, err := w.Relay.Address(ctx)
	if err != nil {
		return wallet.Handle{}, err
	}
	h, err := wallet.NewHandle(addr, wallet.KindICONex, "")
	if err != nil {
		return wallet.Handle{}, err
	}
	if err := w.Store.Open(h); err != nil {
		return wallet.Handle{}, err
	}
	return h, nil
}

// Lock 卸载当前钱包, 不取消进行中的操作
func (w *Wallet) Lock() error {
	return w.Store.Close()
}

// Transfer 转账 value loop 到 to
func (w *Wallet) Transfer(ctx context.Context, to string, value *big.Int) (*Outcome, error) {
	return w.execute(ctx, transaction.KindTransfer, transaction.Params{To: to, Value: value})
}

// Stake 把质押量设置为 value loop
func (w *Wallet) Stake(ctx context.Context, value *big.Int) (*Outcome, error) {
	return w.execute(ctx, transaction.KindSetStake, transaction.Params{Stake: value})
}

// Delegate 用 delegations 覆盖现有委托, 总和不能超过当前质押
func (w *Wallet) Delegate(ctx context.Context, delegations []rpc.Delegation) (*Outcome, error) {
	h, err := w.Store.Handle()
	if err != nil {
		return nil, err
	}
	for _, d := range delegations {
		if !address.IsEOA(d.Address) {
			return nil, errno.New(errno.ErrInvalidAddress, "invalid delegate address %q", d.Address)
		}
	}
	stake, err := w.RPC.GetStake(ctx, h.Address)
	if err != nil {
		return nil, errno.Wrap(errno.ErrRPC, err)
	}
	if err := ValidateDelegations(delegations, stake.Stake); err != nil {
		return nil, err
	}
	return w.execute(ctx, transaction.KindSetDelegation, transaction.Params{Delegations: delegations})
}

// Claim 领取 I-Score
func (w *Wallet) Claim(ctx context.Context) (*Outcome, error) {
	return w.execute(ctx, transaction.KindClaimIScore, transaction.Params{})
}

func (w *Wallet) execute(ctx context.Context, kind transaction.Kind, params transaction.Params) (*Outcome, error) {
	h, err := w.Store.Handle()
	if err != nil {
		return nil, err
	}
	out, err := w.Pipeline.Execute(ctx, h, kind, params, w.attempts(w.cfg.Poll.Attempts, DefaultAttempts))
	if err != nil {
		return out, err
	}
	if err := w.Store.Refresh(ctx); err != nil {
		w.log.Warn("refresh after transaction failed", zap.Error(err))
	}
	return out, nil
}

func (w *Wallet) attempts(configured, fallback int) int {
	if configured > 0 {
		return configured
	}
	return fallback
}

// ClaimStakeVote 返回当前钱包的领取-质押-投票链. 上一条链未完成时返回它, 否则新建
func (w *Wallet) ClaimStakeVote() (*Chain, error) {
	h, err := w.Store.Handle()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.chains[h.Address]; ok && !c.Finished() {
		return c, nil
	}
	c := NewClaimStakeVote(w.Pipeline, w.RPC, h, w.attempts(w.cfg.Poll.ChainAttempts, DefaultChainAttempts), w.Store.Refresh)
	w.chains[h.Address] = c
	return c, nil
}

// CurrentChain 当前钱包最近一条链
func (w *Wallet) CurrentChain() (*Chain, error) {
	h, err := w.Store.Handle()
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.chains[h.Address]
	if !ok {
		return nil, errno.New(errno.ErrStepNotRetryable, "no claim-stake-vote operation for %s", h.Address)
	}
	return c, nil
}

// StartClaimStakeVote 在后台执行链, 立即返回. 结果通过 CurrentChain().States() 查看
func (w *Wallet) StartClaimStakeVote() (*Chain, error) {
	c, err := w.ClaimStakeVote()
	if err != nil {
		return nil, err
	}
	if c.Running() {
		return nil, errno.New(errno.ErrChainBusy, "chain %s is already running", c.Name())
	}
	go func() {
		if err := c.Run(w.ctx); err != nil {
			w.log.Warn("claim-stake-vote stopped", zap.Error(err))
		}
	}()
	return c, nil
}

// RetryClaimStakeVote 在后台重试当前链的 step
func (w *Wallet) RetryClaimStakeVote(step string) (*Chain, error) {
	c, err := w.CurrentChain()
	if err != nil {
		return nil, err
	}
	if err := c.CanRetry(step); err != nil {
		return nil, err
	}
	go func() {
		if err := c.RetryStep(w.ctx, step); err != nil {
			w.log.Warn("claim-stake-vote retry stopped", zap.String("step", step), zap.Error(err))
		}
	}()
	return c, nil
}

// NewRefreshScheduler 按 session.refresh_interval 定时刷新
func (w *Wallet) NewRefreshScheduler() *RefreshScheduler {
	return NewRefreshScheduler(w.cfg.Session.RefreshInterval, w.Store, w.Locks)
}

// Close 卸载钱包并停止后台订阅
func (w *Wallet) Close() error {
	err := w.Store.Close()
	w.cancel()
	if cerr := w.Bus.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
