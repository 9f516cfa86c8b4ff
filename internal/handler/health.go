package handler

import (
	"github.com/gin-gonic/gin"

	"icx-wallet/internal/handler/response"
)

// HealthCheck 服务存活检查
func HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "UP",
		"version": "1.0.0",
		"service": "icx-wallet",
	})
}
