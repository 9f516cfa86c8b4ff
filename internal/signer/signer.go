package signer

import (
	"context"

	"icx-wallet/internal/transaction"
	"icx-wallet/internal/wallet"
)

// Signer 签名后端. 不做重试, 失败直接返回
type Signer interface {
	Sign(ctx context.Context, u *transaction.Unsigned, h wallet.Handle) (*transaction.Signed, error)
}
