package signer

import (
	"context"
	"encoding/hex"

	"icx-wallet/internal/relay"
	"icx-wallet/internal/transaction"
	"icx-wallet/internal/wallet"
)

// RelaySigner 把哈希发给 ICONex 扩展签名, 没有超时, 由 ctx 控制放弃
type RelaySigner struct {
	client *relay.Client
}

func NewRelaySigner(client *relay.Client) *RelaySigner {
	return &RelaySigner{client: client}
}

func (s *RelaySigner) Sign(ctx context.Context, u *transaction.Unsigned, h wallet.Handle) (*transaction.Signed, error) {
	// 扩展接收不带 0x 的哈希
	sig, err := s.client.RequestSigning(ctx, h.Address, hex.EncodeToString(u.HashBytes()))
	if err != nil {
		return nil, err
	}
	return transaction.NewSignedBase64(u, sig)
}
