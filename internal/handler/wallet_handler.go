package handler

import (
	"github.com/gin-gonic/gin"

	"icx-wallet/internal/handler/request"
	"icx-wallet/internal/handler/response"
	"icx-wallet/internal/service"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/errno"
	"icx-wallet/pkg/keystore"
	"icx-wallet/pkg/validator"
)

type WalletHandler struct {
	svc *service.Wallet
}

func NewWalletHandler(svc *service.Wallet) *WalletHandler {
	return &WalletHandler{svc: svc}
}

// Get 当前钱包和账户指标
// GET /api/v1/wallet
func (h *WalletHandler) Get(c *gin.Context) {
	hd, err := h.svc.Store.Handle()
	if err != nil {
		response.Error(c, err)
		return
	}
	m, err := h.svc.Store.Metrics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"wallet":  hd,
		"network": h.svc.Networks.Ref(),
		"metrics": m,
	})
}

// Unlock 解锁钱包, 替换当前会话
// POST /api/v1/wallet/unlock
func (h *WalletHandler) Unlock(c *gin.Context) {
	var req request.UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}

	var (
		hd  wallet.Handle
		err error
	)
	switch wallet.Kind(req.Kind) {
	case wallet.KindKeystore:
		var ks *keystore.EncryptedKeyJSON
		ks, err = keystore.Parse(req.Keystore)
		if err == nil {
			hd, err = h.svc.UnlockKeystore(ks, req.Password)
		}
	case wallet.KindLedger:
		hd, err = h.svc.UnlockLedger(c.Request.Context(), req.Index)
	case wallet.KindICONex:
		hd, err = h.svc.UnlockICONex(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, hd)
}

// Lock 卸载当前钱包
// DELETE /api/v1/wallet
func (h *WalletHandler) Lock(c *gin.Context) {
	if err := h.svc.Lock(); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// SwitchNetwork 切换网络, 当前钱包会被卸载
// POST /api/v1/wallet/network
func (h *WalletHandler) SwitchNetwork(c *gin.Context) {
	var req request.SwitchNetworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}
	if err := h.svc.Store.SwitchNetwork(req.Network); err != nil {
		response.Error(c, errno.Wrap(errno.ErrBind, err))
		return
	}
	response.Success(c, gin.H{"network": h.svc.Networks.Ref()})
}
