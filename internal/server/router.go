package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"icx-wallet/internal/handler"
	"icx-wallet/internal/relay"
	"icx-wallet/internal/server/routes"
	"icx-wallet/internal/service"
	"icx-wallet/pkg/monitor"
)

// NewHTTPRouter 初始化并返回一个 Gin Engine
func NewHTTPRouter(svc *service.Wallet, requestTopic, responseTopic string) *gin.Engine {
	r := gin.Default()
	r.Use(monitor.PrometheusMiddleware())

	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 浏览器扩展通过 websocket 接入 relay
	r.GET("/relay/ws", gin.WrapH(relay.NewBridge(svc.Bus, requestTopic, responseTopic)))

	api := r.Group("/api/v1")
	routes.RegisterWalletRoutes(api, svc)

	return r
}
