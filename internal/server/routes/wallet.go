package routes

import (
	"github.com/gin-gonic/gin"

	"icx-wallet/internal/handler"
	"icx-wallet/internal/service"
)

func RegisterWalletRoutes(rg *gin.RouterGroup, svc *service.Wallet) {
	w := handler.NewWalletHandler(svc)
	walletGroup := rg.Group("/wallet")
	{
		walletGroup.GET("", w.Get)
		walletGroup.DELETE("", w.Lock)
		walletGroup.POST("/unlock", w.Unlock)
		walletGroup.POST("/network", w.SwitchNetwork)
	}

	tx := handler.NewTxHandler(svc)
	rg.POST("/transfer", tx.Transfer)
	rg.POST("/stake", tx.Stake)
	rg.POST("/delegate", tx.Delegate)
	rg.POST("/claim", tx.Claim)

	chain := handler.NewChainHandler(svc)
	csv := rg.Group("/claim-stake-vote")
	{
		csv.POST("", chain.Start)
		csv.GET("", chain.Get)
		csv.POST("/retry/:step", chain.Retry)
	}
}
