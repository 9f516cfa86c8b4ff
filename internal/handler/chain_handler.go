package handler

import (
	"github.com/gin-gonic/gin"

	"icx-wallet/internal/handler/response"
	"icx-wallet/internal/service"
)

// ChainHandler 领取-质押-投票链. 链在后台执行, 客户端轮询 GET 获取进度
type ChainHandler struct {
	svc *service.Wallet
}

func NewChainHandler(svc *service.Wallet) *ChainHandler {
	return &ChainHandler{svc: svc}
}

// Start POST /api/v1/claim-stake-vote
func (h *ChainHandler) Start(c *gin.Context) {
	chain, err := h.svc.StartClaimStakeVote()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, chainView(chain))
}

// Get GET /api/v1/claim-stake-vote
func (h *ChainHandler) Get(c *gin.Context) {
	chain, err := h.svc.CurrentChain()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, chainView(chain))
}

// Retry POST /api/v1/claim-stake-vote/retry/:step
func (h *ChainHandler) Retry(c *gin.Context) {
	chain, err := h.svc.RetryClaimStakeVote(c.Param("step"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, chainView(chain))
}

func chainView(c *service.Chain) gin.H {
	return gin.H{
		"name":     c.Name(),
		"running":  c.Running(),
		"finished": c.Finished(),
		"steps":    c.States(),
	}
}
