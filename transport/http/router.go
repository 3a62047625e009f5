// Package http is the gin transport layer for the wallet auth service.
package http

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/amoria-labs/walletauth/ports"
	"github.com/amoria-labs/walletauth/service"
)

// SetupRouter wires the public and protected auth routes.
func SetupRouter(authService *service.AuthService, tokenizer ports.Tokenizer, logger *log.Logger) *gin.Engine {
	router := gin.Default()

	handlers := NewAuthHandlers(authService, logger)

	api := router.Group("/api")
	{
		api.GET("/health", handlers.Health)

		auth := api.Group("/auth")
		{
			auth.GET("/nonce/:walletAddress", handlers.Nonce)
			auth.POST("/verify", handlers.Verify)
			auth.POST("/link-wallet", handlers.LinkWallet)
		}

		protected := api.Group("/auth")
		protected.Use(AuthMiddleware(tokenizer))
		{
			protected.GET("/me", handlers.Me)
		}
	}

	return router
}
