package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"icx-wallet/internal/model"
	"icx-wallet/internal/rpc"
	"icx-wallet/internal/transaction"
	"icx-wallet/pkg/amount"
	"icx-wallet/pkg/crypto_util"
	"icx-wallet/pkg/errno"
	"icx-wallet/pkg/logger"
	"icx-wallet/pkg/monitor"
	"icx-wallet/pkg/utils/lock"
)

// DuplicateWindow 同一份签名数据在该时间内不能重复提交
const DuplicateWindow = time.Minute

// TxSender icx_sendTransaction
type TxSender interface {
	SendTransaction(ctx context.Context, params map[string]interface{}) (string, error)
}

// Submitter 提交已签名交易, 不做重试
type Submitter struct {
	rpc     TxSender
	locks   lock.DistributedLock
	journal model.Journal
	network func() string
	log     *zap.Logger
}

func NewSubmitter(sender TxSender, locks lock.DistributedLock, journal model.Journal, network func() string) *Submitter {
	if locks == nil {
		locks = lock.NewLocalLock()
	}
	if journal == nil {
		journal = model.NopJournal{}
	}
	if network == nil {
		network = func() string { return "" }
	}
	return &Submitter{
		rpc:     sender,
		locks:   locks,
		journal: journal,
		network: network,
		log:     logger.Named("submitter"),
	}
}

// Submit 返回节点给出的交易哈希. 节点拒绝时原样返回其错误信息 (SubmissionRejected)
func (s *Submitter) Submit(ctx context.Context, signed *transaction.Signed) (string, error) {
	u := signed.Unsigned()
	kind := string(u.Kind())

	if !signed.Consume() {
		return "", errno.New(errno.ErrSubmissionRejected, "transaction %s was already submitted", signed.Hash())
	}

	params := signed.RPCParams()
	payload, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	// 相同签名数据的指纹, 防止误操作重复提交
	key := "submit:" + crypto_util.CalculateBlake3(payload)
	ok, err := s.locks.Acquire(ctx, key, DuplicateWindow)
	if err != nil {
		s.log.Warn("duplicate guard unavailable", zap.Error(err))
	} else if !ok {
		return "", errno.New(errno.ErrSubmissionRejected, "transaction %s is already being submitted", signed.Hash())
	}

	hash, err := s.rpc.SendTransaction(ctx, params)
	if err != nil {
		monitor.Business.TxRejectedTotal.WithLabelValues(kind).Inc()
		s.log.Info("submission failed", zap.String("kind", kind), zap.String("from", u.From()), zap.Error(err))
		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) {
			return "", errno.Wrap(errno.ErrSubmissionRejected, err)
		}
		return "", errno.Wrap(errno.ErrRPC, err)
	}

	monitor.Business.TxSubmittedTotal.WithLabelValues(kind).Inc()
	s.log.Info("transaction submitted",
		zap.String("kind", kind),
		zap.String("from", u.From()),
		zap.String("to", u.To()),
		zap.String("hash", hash),
	)

	rec := &model.TxRecord{
		TxHash:      hash,
		Network:     s.network(),
		NID:         u.NID(),
		Kind:        kind,
		FromAddress: u.From(),
		ToAddress:   u.To(),
		Amount:      amount.ToDisplay(u.Value()),
		StepLimit:   amount.ToHex(u.StepLimit()),
		Status:      model.TxStatusSubmitted,
	}
	if err := s.journal.Record(ctx, rec); err != nil {
		s.log.Warn("journal record failed", zap.String("hash", hash), zap.Error(err))
	}
	return hash, nil
}
