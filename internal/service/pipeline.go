package service

import (
	"context"

	"go.uber.org/zap"

	"icx-wallet/internal/rpc"
	"icx-wallet/internal/signer"
	"icx-wallet/internal/transaction"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/logger"
)

// Outcome 单笔交易的结果
type Outcome struct {
	Hash   string                 `json:"txHash"`
	Result *rpc.TransactionResult `json:"result"`
}

// Pipeline build -> sign -> submit -> poll, 每一步的错误原样返回
type Pipeline struct {
	builder   *transaction.Builder
	signer    signer.Signer
	submitter *Submitter
	poller    *Poller
	log       *zap.Logger
}

func NewPipeline(b *transaction.Builder, s signer.Signer, sub *Submitter, p *Poller) *Pipeline {
	return &Pipeline{
		builder:   b,
		signer:    s,
		submitter: sub,
		poller:    p,
		log:       logger.Named("pipeline"),
	}
}

// Execute 用 h 签名并提交一笔 kind 交易, 等待最多 maxAttempts 次确认.
// 交易已提交但确认失败时 Outcome.Hash 仍然有效
func (p *Pipeline) Execute(ctx context.Context, h wallet.Handle, kind transaction.Kind, params transaction.Params, maxAttempts int) (*Outcome, error) {
	if params.From == "" {
		params.From = h.Address
	}

	u, err := p.builder.Build(ctx, kind, params)
	if err != nil {
		return nil, err
	}

	signed, err := p.signer.Sign(ctx, u, h)
	if err != nil {
		return nil, err
	}

	hash, err := p.submitter.Submit(ctx, signed)
	if err != nil {
		return nil, err
	}
	if hash != signed.Hash() {
		// 节点返回的哈希才是查询依据
		p.log.Warn("node returned a different hash", zap.String("local", signed.Hash()), zap.String("node", hash))
	}

	out := &Outcome{Hash: hash}
	result, err := p.poller.WaitForConfirmation(ctx, hash, maxAttempts)
	out.Result = result
	if err != nil {
		return out, err
	}
	return out, nil
}
