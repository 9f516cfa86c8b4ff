package handler

import (
	"math/big"

	"github.com/gin-gonic/gin"

	"icx-wallet/internal/handler/request"
	"icx-wallet/internal/handler/response"
	"icx-wallet/internal/rpc"
	"icx-wallet/internal/service"
	"icx-wallet/pkg/amount"
	"icx-wallet/pkg/errno"
	"icx-wallet/pkg/validator"
)

// TxHandler 单笔交易接口, 请求在交易确认 (或超时) 后返回
type TxHandler struct {
	svc *service.Wallet
}

func NewTxHandler(svc *service.Wallet) *TxHandler {
	return &TxHandler{svc: svc}
}

// Transfer POST /api/v1/transfer
func (h *TxHandler) Transfer(c *gin.Context) {
	var req request.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}
	value, err := toLoop(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.svc.Transfer(c.Request.Context(), req.To, value)
	reply(c, out, err)
}

// Stake POST /api/v1/stake
func (h *TxHandler) Stake(c *gin.Context) {
	var req request.StakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}
	value, err := toLoop(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.svc.Stake(c.Request.Context(), value)
	reply(c, out, err)
}

// Delegate POST /api/v1/delegate
func (h *TxHandler) Delegate(c *gin.Context) {
	var req request.DelegateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}
	delegations := make([]rpc.Delegation, 0, len(req.Delegations))
	for _, d := range req.Delegations {
		value, err := toLoop(d.Amount)
		if err != nil {
			response.Error(c, err)
			return
		}
		delegations = append(delegations, rpc.Delegation{Address: d.Address, Value: value})
	}
	out, err := h.svc.Delegate(c.Request.Context(), delegations)
	reply(c, out, err)
}

// Claim POST /api/v1/claim
func (h *TxHandler) Claim(c *gin.Context) {
	out, err := h.svc.Claim(c.Request.Context())
	reply(c, out, err)
}

func toLoop(icx string) (*big.Int, error) {
	d, err := amount.ParseDisplay(icx)
	if err != nil {
		return nil, err
	}
	return amount.ToLoop(d)
}

// reply 超时时仍返回交易哈希, 交易可能稍后确认
func reply(c *gin.Context, out *service.Outcome, err error) {
	if err != nil {
		code, msg := errno.Decode(err)
		data := gin.H{}
		if out != nil && out.Hash != "" {
			data["txHash"] = out.Hash
		}
		c.JSON(200, response.Response{Code: code, Message: msg, Data: data})
		return
	}
	response.Success(c, gin.H{
		"txHash": out.Hash,
		"result": out.Result,
	})
}
