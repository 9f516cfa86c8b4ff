package service

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icx-wallet/internal/rpc"
	"icx-wallet/internal/transaction"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/amount"
	"icx-wallet/pkg/errno"
)

const (
	owner = "hx0123456789abcdef0123456789abcdef01234567"
	prepA = "hx1111111111111111111111111111111111111111"
	prepB = "hx2222222222222222222222222222222222222222"
	prepC = "hx3333333333333333333333333333333333333333"
)

func loop(t *testing.T, icx string) *big.Int {
	t.Helper()
	v, err := amount.ToLoop(decimal.RequireFromString(icx))
	require.NoError(t, err)
	return v
}

func TestVoteIncrementRounding(t *testing.T) {
	claimed := decimal.RequireFromString("10.00005")
	inc, err := VoteIncrement(claimed, 3)
	require.NoError(t, err)
	assert.Equal(t, "3.3333", inc.String())
	assert.True(t, inc.Mul(decimal.NewFromInt(3)).LessThanOrEqual(claimed))

	_, err = VoteIncrement(claimed, 0)
	assert.ErrorIs(t, err, errno.ErrNoDelegations)
}

func TestVoteIncrementNeverRoundsUp(t *testing.T) {
	tests := []struct {
		name    string
		claimed string // loop
		n       int
		want    string
	}{
		{"just below 0.0001", "99999999999999", 1, "0"},
		{"three way just below 0.0001 each", "299999999999999", 3, "0"},
		{"odd remainder", "1000000000000000001", 3, "0.3333"},
		{"exact", "3000000000000000000", 3, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claimed, ok := new(big.Int).SetString(tt.claimed, 10)
			require.True(t, ok)
			display := amount.ToDisplay(claimed)

			inc, err := VoteIncrement(display, tt.n)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(inc), "got %s", inc)
			assert.True(t, inc.Mul(decimal.NewFromInt(int64(tt.n))).LessThanOrEqual(display))

			current := make([]rpc.Delegation, tt.n)
			out, err := DistributeVotes(current, claimed)
			require.NoError(t, err)
			total := new(big.Int)
			for _, d := range out {
				total.Add(total, d.Value)
			}
			assert.LessOrEqual(t, total.Cmp(claimed), 0, "distributed %s of %s", total, claimed)
		})
	}
}

func TestDistributeVotes(t *testing.T) {
	current := []rpc.Delegation{
		{Address: prepA, Value: loop(t, "1")},
		{Address: prepB, Value: loop(t, "2")},
		{Address: prepC, Value: nil},
	}
	out, err := DistributeVotes(current, loop(t, "10.00005"))
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, loop(t, "4.3333"), out[0].Value)
	assert.Equal(t, loop(t, "5.3333"), out[1].Value)
	assert.Equal(t, loop(t, "3.3333"), out[2].Value)
	// 原列表不被修改
	assert.Equal(t, loop(t, "1"), current[0].Value)

	assert.NoError(t, ValidateDelegations(out, loop(t, "13")))
	assert.ErrorIs(t, ValidateDelegations(out, loop(t, "12.9999")), errno.ErrDelegationExceedsStake)
}

// fakeExecutor 按 kind 返回预设结果, 记录参数
type fakeExecutor struct {
	calls   []transaction.Kind
	params  []transaction.Params
	results map[transaction.Kind]*rpc.TransactionResult
	errs    map[transaction.Kind]error
}

func (f *fakeExecutor) Execute(_ context.Context, h wallet.Handle, kind transaction.Kind, p transaction.Params, maxAttempts int) (*Outcome, error) {
	f.calls = append(f.calls, kind)
	f.params = append(f.params, p)
	hash := "0x" + string(kind)
	if err := f.errs[kind]; err != nil {
		return &Outcome{Hash: hash}, err
	}
	return &Outcome{Hash: hash, Result: f.results[kind]}, nil
}

type fakeStakeReader struct {
	stake *big.Int
	deleg []rpc.Delegation
}

func (f *fakeStakeReader) GetStake(context.Context, string) (*rpc.Stake, error) {
	return &rpc.Stake{Stake: f.stake, Unstaking: new(big.Int)}, nil
}

func (f *fakeStakeReader) GetDelegation(context.Context, string) (*rpc.DelegationInfo, error) {
	return &rpc.DelegationInfo{Delegations: f.deleg}, nil
}

func claimResult(claimedLoop *big.Int) *rpc.TransactionResult {
	return &rpc.TransactionResult{
		Status: "0x1",
		EventLogs: []rpc.EventLog{{
			ScoreAddress: "cx0000000000000000000000000000000000000000",
			Indexed:      []string{IScoreClaimedEvent},
			Data:         []string{"0x2710", amount.ToHex(claimedLoop)},
		}},
	}
}

func TestClaimStakeVote(t *testing.T) {
	exec := &fakeExecutor{
		results: map[transaction.Kind]*rpc.TransactionResult{
			transaction.KindClaimIScore:   claimResult(loop(t, "10.00005")),
			transaction.KindSetStake:      {Status: "0x1"},
			transaction.KindSetDelegation: {Status: "0x1"},
		},
		errs: map[transaction.Kind]error{},
	}
	reader := &fakeStakeReader{
		stake: loop(t, "100"),
		deleg: []rpc.Delegation{
			{Address: prepA, Value: loop(t, "50")},
			{Address: prepB, Value: loop(t, "30")},
			{Address: prepC, Value: loop(t, "20")},
		},
	}
	refreshed := false
	h := wallet.Handle{Address: owner, Kind: wallet.KindKeystore}
	c := NewClaimStakeVote(exec, reader, h, 0, func(context.Context) error {
		refreshed = true
		return nil
	})

	require.NoError(t, c.Run(context.Background()))
	assert.True(t, refreshed)
	assert.Equal(t, []transaction.Kind{transaction.KindClaimIScore, transaction.KindSetStake, transaction.KindSetDelegation}, exec.calls)

	assert.Equal(t, loop(t, "110.00005"), exec.params[1].Stake)
	votes := exec.params[2].Delegations
	require.Len(t, votes, 3)
	assert.Equal(t, loop(t, "53.3333"), votes[0].Value)
	assert.Equal(t, loop(t, "33.3333"), votes[1].Value)
	assert.Equal(t, loop(t, "23.3333"), votes[2].Value)

	states := c.States()
	assert.Equal(t, "0x"+string(transaction.KindClaimIScore), states[0].TxHash)
	assert.Equal(t, loop(t, "10.00005").String(), states[0].Data["claimed"])
}

func TestClaimStakeVoteNoDelegations(t *testing.T) {
	exec := &fakeExecutor{
		results: map[transaction.Kind]*rpc.TransactionResult{
			transaction.KindClaimIScore: claimResult(loop(t, "1")),
			transaction.KindSetStake:    {Status: "0x1"},
		},
		errs: map[transaction.Kind]error{},
	}
	reader := &fakeStakeReader{stake: loop(t, "5")}
	c := NewClaimStakeVote(exec, reader, wallet.Handle{Address: owner, Kind: wallet.KindKeystore}, 0, nil)

	err := c.Run(context.Background())
	assert.ErrorIs(t, err, errno.ErrChainStepFailed)
	assert.ErrorIs(t, err, errno.ErrNoDelegations)
	states := c.States()
	assert.Equal(t, StatusFinished, states[0].Status)
	assert.Equal(t, StatusFinished, states[1].Status)
	assert.Equal(t, StatusErrored, states[2].Status)
	assert.Len(t, exec.calls, 2, "没有委托时不发送 setDelegation")
}

func TestClaimStakeVoteRetryStake(t *testing.T) {
	exec := &fakeExecutor{
		results: map[transaction.Kind]*rpc.TransactionResult{
			transaction.KindClaimIScore:   claimResult(loop(t, "3")),
			transaction.KindSetStake:      {Status: "0x1"},
			transaction.KindSetDelegation: {Status: "0x1"},
		},
		errs: map[transaction.Kind]error{
			transaction.KindSetStake: errno.Wrap(errno.ErrUserRejected, nil),
		},
	}
	reader := &fakeStakeReader{stake: loop(t, "10"), deleg: []rpc.Delegation{{Address: prepA, Value: loop(t, "10")}}}
	c := NewClaimStakeVote(exec, reader, wallet.Handle{Address: owner, Kind: wallet.KindKeystore}, 0, nil)

	err := c.Run(context.Background())
	assert.ErrorIs(t, err, errno.ErrUserRejected)

	delete(exec.errs, transaction.KindSetStake)
	require.NoError(t, c.RetryStep(context.Background(), StepStake))

	// claim 只执行一次
	claims := 0
	for _, k := range exec.calls {
		if k == transaction.KindClaimIScore {
			claims++
		}
	}
	assert.Equal(t, 1, claims)
	assert.Equal(t, loop(t, "13"), exec.params[len(exec.params)-1].Delegations[0].Value)
}

func TestClaimedAmount(t *testing.T) {
	v, err := ClaimedAmount(claimResult(big.NewInt(42)))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int64())

	_, err = ClaimedAmount(&rpc.TransactionResult{Status: "0x1"})
	assert.ErrorIs(t, err, errno.ErrTransactionFailed)

	_, err = ClaimedAmount(nil)
	assert.True(t, errors.Is(err, errno.ErrTransactionFailed))
}
