package transaction

import (
	"context"
	"math/big"
	"time"

	"go.uber.org/zap"

	"icx-wallet/internal/rpc"
	"icx-wallet/pkg/address"
	"icx-wallet/pkg/amount"
	"icx-wallet/pkg/config"
	"icx-wallet/pkg/errno"
	"icx-wallet/pkg/logger"
)

// StepCostSource 查询 getStepCosts, *rpc.Client 实现
type StepCostSource interface {
	GetStepCosts(ctx context.Context) (map[string]*big.Int, error)
}

// NIDFunc 返回当前选中网络的 nid, 每次构建都重新读取
type NIDFunc func() int64

// Params 各类交易的输入, 按 Kind 取用对应字段
type Params struct {
	From  string
	To    string   // transfer
	Value *big.Int // transfer, loop
	Stake *big.Int // setStake, loop
	// setDelegation, 完整的委托列表 (会覆盖链上原有委托)
	Delegations []rpc.Delegation
	// StepLimit 非空时覆盖默认值, 跳过 getStepCosts
	StepLimit *big.Int
	Nonce     *big.Int
}

type Builder struct {
	costs          StepCostSource
	nid            NIDFunc
	queryCosts     bool
	transferStep   *big.Int
	governanceStep *big.Int
	now            func() time.Time
	log            *zap.Logger
}

func NewBuilder(costs StepCostSource, nid NIDFunc, cfg config.WalletConfig) *Builder {
	return &Builder{
		costs:          costs,
		nid:            nid,
		queryCosts:     cfg.QueryStepCosts,
		transferStep:   big.NewInt(cfg.TransferStepCost),
		governanceStep: big.NewInt(cfg.GovernanceStepCost),
		now:            time.Now,
		log:            logger.Named("tx-builder"),
	}
}

// Build 构建未签名交易. 不签名, 不提交
func (b *Builder) Build(ctx context.Context, kind Kind, p Params) (*Unsigned, error) {
	if !address.IsEOA(p.From) {
		return nil, errno.New(errno.ErrInvalidAddress, "invalid sender address %q", p.From)
	}

	u := &Unsigned{
		kind:  kind,
		from:  p.From,
		nonce: copyInt(p.Nonce),
	}

	switch kind {
	case KindTransfer:
		if !address.IsValid(p.To) {
			return nil, errno.New(errno.ErrInvalidAddress, "invalid recipient address %q", p.To)
		}
		if err := nonNegative("value", p.Value); err != nil {
			return nil, err
		}
		u.to = p.To
		u.value = copyInt(p.Value)

	case KindSetStake:
		if err := nonNegative("stake", p.Stake); err != nil {
			return nil, err
		}
		u.to = address.GovernanceScore
		u.dataType = "call"
		u.data = map[string]interface{}{
			"method": "setStake",
			"params": map[string]interface{}{"value": amount.ToHex(p.Stake)},
		}

	case KindSetDelegation:
		list := make([]interface{}, 0, len(p.Delegations))
		for _, d := range p.Delegations {
			if !address.IsEOA(d.Address) {
				return nil, errno.New(errno.ErrInvalidAddress, "invalid delegate address %q", d.Address)
			}
			if err := nonNegative("delegation value", d.Value); err != nil {
				return nil, err
			}
			list = append(list, map[string]interface{}{
				"address": d.Address,
				"value":   amount.ToHex(d.Value),
			})
		}
		u.to = address.GovernanceScore
		u.dataType = "call"
		u.data = map[string]interface{}{
			"method": "setDelegation",
			"params": map[string]interface{}{"delegations": list},
		}

	case KindClaimIScore:
		u.to = address.GovernanceScore
		u.dataType = "call"
		u.data = map[string]interface{}{"method": "claimIScore"}

	default:
		return nil, errno.New(errno.ErrInvalidParam, "unknown transaction kind %q", kind)
	}

	step, err := b.stepLimit(ctx, kind, p.StepLimit)
	if err != nil {
		return nil, err
	}
	u.stepLimit = step

	// 时间戳和 nid 每次都重新取, 不跨网络切换缓存
	u.timestamp = b.now().UnixMicro()
	u.nid = b.nid()

	b.log.Debug("transaction built",
		zap.String("kind", string(kind)),
		zap.String("from", u.from),
		zap.String("to", u.to),
		zap.Int64("nid", u.nid),
		zap.String("stepLimit", u.stepLimit.String()),
	)
	return u, nil
}

func (b *Builder) stepLimit(ctx context.Context, kind Kind, override *big.Int) (*big.Int, error) {
	if override != nil {
		if override.Sign() <= 0 {
			return nil, errno.New(errno.ErrInvalidAmount, "step limit must be positive")
		}
		return copyInt(override), nil
	}
	if kind != KindTransfer {
		return copyInt(b.governanceStep), nil
	}
	if !b.queryCosts {
		return copyInt(b.transferStep), nil
	}

	costs, err := b.costs.GetStepCosts(ctx)
	if err != nil {
		return nil, errno.Wrap(errno.ErrFeeQueryFailed, err)
	}
	def, ok := costs["default"]
	if !ok || def.Sign() <= 0 {
		return nil, errno.New(errno.ErrFeeQueryFailed, "getStepCosts returned no default step cost")
	}
	return copyInt(def), nil
}

func nonNegative(field string, v *big.Int) error {
	if v == nil {
		return errno.New(errno.ErrInvalidAmount, "%s is required", field)
	}
	if v.Sign() < 0 {
		return errno.New(errno.ErrInvalidAmount, "%s must not be negative", field)
	}
	return nil
}
