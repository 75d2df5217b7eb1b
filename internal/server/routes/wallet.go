package routes

import (
	"agent-wallet/internal/handler"

	"github.com/gin-gonic/gin"
)

func RegisterWalletRoutes(rg *gin.RouterGroup, h *handler.WalletHandler) {
	walletGroup := rg.Group("/wallet")
	{
		walletGroup.POST("/action", h.DispatchAction)
		walletGroup.GET("/robot", h.Robot)
		walletGroup.GET("/records", h.Records)
		walletGroup.GET("/statuses", h.Statuses)

		userGroup := walletGroup.Group("/user")
		{
			userGroup.POST("/connect", h.UserConnect)
			userGroup.POST("/disconnect", h.UserDisconnect)
			userGroup.POST("/submit", h.UserSubmit)
		}
	}
}
