package server

import (
	"log/slog"
	"net/http"

	"github.com/USA-RedDragon/contract-relay/internal/config"
	"github.com/USA-RedDragon/contract-relay/internal/server/controllers"
	"github.com/USA-RedDragon/contract-relay/internal/websocket"
	"github.com/gin-gonic/gin"
)

func applyRoutes(r *gin.Engine, config *config.Config, deps Dependencies) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")
	api.POST("/privy", requireAuth(deps.Verifier), controllers.POSTPrivy)
	api.GET("/contract", controllers.GETContract)
	api.GET("/config", controllers.GETConfig)
	api.GET("/transactions", requireAuth(deps.Verifier), controllers.GETTransactions)
	if deps.Hub != nil {
		api.GET("/ws/transactions", websocket.CreateHandler(deps.Hub, config))
	}

	r.NoRoute(func(c *gin.Context) {
		slog.Warn("Not Found", "path", c.Request.URL.Path)
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})
}
