package service

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"icx-wallet/internal/model"
	"icx-wallet/internal/rpc"
	"icx-wallet/pkg/amount"
	"icx-wallet/pkg/errno"
	"icx-wallet/pkg/logger"
	"icx-wallet/pkg/monitor"
)

// 默认轮询预算
const (
	DefaultAttempts      = 10
	DefaultChainAttempts = 100
	DefaultPollInterval  = 600 * time.Millisecond
)

// ResultFetcher icx_getTransactionResult
type ResultFetcher interface {
	GetTransactionResult(ctx context.Context, hash string) (*rpc.TransactionResult, error)
}

// Poller 固定间隔轮询交易结果
type Poller struct {
	rpc      ResultFetcher
	interval time.Duration
	journal  model.Journal
	log      *zap.Logger
}

func NewPoller(fetcher ResultFetcher, interval time.Duration, journal model.Journal) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if journal == nil {
		journal = model.NopJournal{}
	}
	return &Poller{
		rpc:      fetcher,
		interval: interval,
		journal:  journal,
		log:      logger.Named("poller"),
	}
}

// WaitForConfirmation 获取失败时等待 interval 后重试, 共 maxAttempts 次.
// 拿到结果立即返回; status 0x0 是终态失败, 不再重试
func (p *Poller) WaitForConfirmation(ctx context.Context, hash string, maxAttempts int) (*rpc.TransactionResult, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		attempts int
		last     *rpc.TransactionResult // 失败时 DoWithData 不返回数据
	)
	result, err := retry.DoWithData(
		func() (*rpc.TransactionResult, error) {
			attempts++
			r, err := p.rpc.GetTransactionResult(ctx, hash)
			if err != nil {
				return nil, err
			}
			last = r
			if !r.Succeeded() {
				return nil, retry.Unrecoverable(failed(r))
			}
			return r, nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(maxAttempts)),
		retry.Delay(p.interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.log.Debug("transaction result not available", zap.String("hash", hash), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	monitor.Business.PollAttempts.Observe(float64(attempts))

	switch {
	case err == nil:
		monitor.Business.TxConfirmedTotal.WithLabelValues(result.Status).Inc()
		p.record(ctx, hash, model.TxStatusConfirmed, result, "")
		return result, nil
	case errors.Is(err, errno.ErrTransactionFailed) && last != nil:
		monitor.Business.TxConfirmedTotal.WithLabelValues(last.Status).Inc()
		p.record(ctx, hash, model.TxStatusFailed, last, err.Error())
		return last, err
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		p.log.Warn("confirmation timed out", zap.String("hash", hash), zap.Int("attempts", attempts), zap.Error(err))
		p.record(ctx, hash, model.TxStatusTimeout, nil, err.Error())
		return nil, errno.Wrap(errno.ErrConfirmationTimeout, err)
	}
}

func (p *Poller) record(ctx context.Context, hash, status string, r *rpc.TransactionResult, failure string) {
	var height uint64
	if r != nil {
		if h, err := amount.ParseLoop(r.BlockHeight); err == nil {
			height = h.Uint64()
		}
	}
	if err := p.journal.UpdateStatus(ctx, hash, status, height, failure); err != nil {
		p.log.Warn("journal update failed", zap.String("hash", hash), zap.Error(err))
	}
}

func failed(r *rpc.TransactionResult) error {
	if r.Failure != nil && r.Failure.Message != "" {
		return errno.New(errno.ErrTransactionFailed, "%s", r.Failure.Message)
	}
	return errno.New(errno.ErrTransactionFailed, "transaction %s failed with status %s", r.TxHash, r.Status)
}
