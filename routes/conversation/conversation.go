package conversation

import (
	"ChatLink/chat"
	"ChatLink/controllers"
	"ChatLink/middleware"

	"github.com/gin-gonic/gin"
)

// Register registers the messaging routes (protected).
func Register(g *gin.RouterGroup, svc *chat.Service) {
	g.GET("/conversations", controllers.ListConversations(svc))
	g.POST("/conversations", controllers.CreateConversation(svc))
	g.GET("/conversations/unread-total", controllers.UnreadTotal(svc))
	g.GET("/conversations/:conversation_id/messages", controllers.GetHistory(svc))
	// Basic rate limiting on the send endpoint
	g.POST("/conversations/:conversation_id/messages", middleware.RateLimit(), controllers.SendMessage(svc))
	g.POST("/conversations/:conversation_id/read", controllers.MarkRead(svc))
	g.DELETE("/messages/:message_id", controllers.DeleteMessage(svc))
}
