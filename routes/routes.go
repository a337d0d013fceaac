package routes

import (
	"ChatLink/chat"
	"ChatLink/middleware"
	"ChatLink/realtime"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authRoutes "ChatLink/routes/auth"
	convRoutes "ChatLink/routes/conversation"
	profileRoutes "ChatLink/routes/profile"
	websocketRoutes "ChatLink/routes/websocket"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc *chat.Service, hub *realtime.Hub) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "ChatLink messaging backend running"})
	})

	websocketRoutes.Register(r, svc, hub)
	authRoutes.RegisterPublic(r, db)

	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware())
	authRoutes.RegisterProtected(protected, db)
	profileRoutes.Register(protected, db)
	convRoutes.Register(protected, svc)
}
