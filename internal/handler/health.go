package handler

import (
	"agent-wallet/internal/handler/response"

	"github.com/gin-gonic/gin"
)

// HealthCheck 存活探针
func HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "UP",
		"service": "agent-wallet-server",
	})
}
