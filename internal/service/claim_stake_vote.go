package service

import (
	"context"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"

	"icx-wallet/internal/rpc"
	"icx-wallet/internal/transaction"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/amount"
	"icx-wallet/pkg/errno"
)

// 链中的步骤名
const (
	StepClaim = "claim"
	StepStake = "stake"
	StepVote  = "vote"
)

// IScoreClaimedEvent claimIScore 回执中的事件, data[1] 是领取到的 loop
const IScoreClaimedEvent = "IScoreClaimed(int,int)"

// VoteDecimals 每个委托增加的票数保留的小数位, 向零截断
const VoteDecimals = 4

// StakeReader 读取链上质押和委托
type StakeReader interface {
	GetStake(ctx context.Context, addr string) (*rpc.Stake, error)
	GetDelegation(ctx context.Context, addr string) (*rpc.DelegationInfo, error)
}

// Executor 执行单笔交易, Pipeline 实现
type Executor interface {
	Execute(ctx context.Context, h wallet.Handle, kind transaction.Kind, params transaction.Params, maxAttempts int) (*Outcome, error)
}

// NewClaimStakeVote 领取 I-Score -> 质押领取的 ICX -> 平均追加到现有委托
func NewClaimStakeVote(exec Executor, reader StakeReader, h wallet.Handle, attempts int, onComplete func(ctx context.Context) error) *Chain {
	if attempts <= 0 {
		attempts = DefaultChainAttempts
	}

	claim := func(ctx context.Context, _ StepResult) (StepResult, error) {
		out, err := exec.Execute(ctx, h, transaction.KindClaimIScore, transaction.Params{}, attempts)
		if err != nil {
			return outcomeResult(out), err
		}
		claimed, err := ClaimedAmount(out.Result)
		if err != nil {
			return outcomeResult(out), err
		}
		res := outcomeResult(out)
		res.Data = map[string]string{"claimed": claimed.String()}
		return res, nil
	}

	stake := func(ctx context.Context, prev StepResult) (StepResult, error) {
		claimed, err := amount.ParseLoop(prev.Data["claimed"])
		if err != nil {
			return StepResult{}, err
		}
		current, err := reader.GetStake(ctx, h.Address)
		if err != nil {
			return StepResult{}, errno.Wrap(errno.ErrRPC, err)
		}
		newStake := new(big.Int).Add(current.Stake, claimed)

		out, err := exec.Execute(ctx, h, transaction.KindSetStake, transaction.Params{Stake: newStake}, attempts)
		res := outcomeResult(out)
		if err != nil {
			return res, err
		}
		res.Data = map[string]string{
			"claimed": claimed.String(),
			"stake":   newStake.String(),
		}
		return res, nil
	}

	vote := func(ctx context.Context, prev StepResult) (StepResult, error) {
		claimed, err := amount.ParseLoop(prev.Data["claimed"])
		if err != nil {
			return StepResult{}, err
		}
		staked, err := amount.ParseLoop(prev.Data["stake"])
		if err != nil {
			return StepResult{}, err
		}
		info, err := reader.GetDelegation(ctx, h.Address)
		if err != nil {
			return StepResult{}, errno.Wrap(errno.ErrRPC, err)
		}
		delegations, err := DistributeVotes(info.Delegations, claimed)
		if err != nil {
			return StepResult{}, err
		}
		if err := ValidateDelegations(delegations, staked); err != nil {
			return StepResult{}, err
		}

		out, err := exec.Execute(ctx, h, transaction.KindSetDelegation, transaction.Params{Delegations: delegations}, attempts)
		res := outcomeResult(out)
		if err != nil {
			return res, err
		}
		res.Data = map[string]string{"delegates": strconv.Itoa(len(delegations))}
		return res, nil
	}

	return NewChain("claim-stake-vote", []Step{
		{Name: StepClaim, Run: claim},
		{Name: StepStake, Run: stake},
		{Name: StepVote, Run: vote},
	}, onComplete)
}

func outcomeResult(out *Outcome) StepResult {
	if out == nil {
		return StepResult{}
	}
	return StepResult{TxHash: out.Hash}
}

// ClaimedAmount 从 claimIScore 回执中取出领取的 loop
func ClaimedAmount(r *rpc.TransactionResult) (*big.Int, error) {
	if r == nil {
		return nil, errno.New(errno.ErrTransactionFailed, "claim result is empty")
	}
	ev, ok := r.FindEvent(IScoreClaimedEvent)
	if !ok || len(ev.Data) < 2 {
		return nil, errno.New(errno.ErrTransactionFailed, "claim result has no %s event", IScoreClaimedEvent)
	}
	return amount.ParseLoop(ev.Data[1])
}

// VoteIncrement 每个委托追加的 ICX: claimed / n, 向零截断到 4 位小数
func VoteIncrement(claimed decimal.Decimal, n int) (decimal.Decimal, error) {
	if n <= 0 {
		return decimal.Zero, errno.Wrap(errno.ErrNoDelegations, nil)
	}
	// QuoRem 直接按 4 位小数向零截断, Div 会先在 16 位精度上四舍五入
	q, _ := claimed.QuoRem(decimal.NewFromInt(int64(n)), VoteDecimals)
	return q, nil
}

// DistributeVotes 把 claimed loop 平均追加到现有委托上, 返回新的完整委托列表
func DistributeVotes(current []rpc.Delegation, claimed *big.Int) ([]rpc.Delegation, error) {
	inc, err := VoteIncrement(amount.ToDisplay(claimed), len(current))
	if err != nil {
		return nil, err
	}
	incLoop, err := amount.ToLoop(inc)
	if err != nil {
		return nil, err
	}

	out := make([]rpc.Delegation, len(current))
	for i, d := range current {
		v := new(big.Int)
		if d.Value != nil {
			v.Set(d.Value)
		}
		out[i] = rpc.Delegation{Address: d.Address, Value: v.Add(v, incLoop)}
	}
	return out, nil
}

// ValidateDelegations 委托总和不能超过质押量
func ValidateDelegations(delegations []rpc.Delegation, staked *big.Int) error {
	total := new(big.Int)
	for _, d := range delegations {
		if d.Value != nil {
			total.Add(total, d.Value)
		}
	}
	if staked == nil || total.Cmp(staked) > 0 {
		return errno.New(errno.ErrDelegationExceedsStake, "total delegation %s ICX exceeds staked %s ICX",
			amount.ToDisplay(total).String(), amount.ToDisplay(staked).String())
	}
	return nil
}
