package websocket

import (
	"ChatLink/chat"
	"ChatLink/controllers"
	"ChatLink/realtime"

	"github.com/gin-gonic/gin"
)

func Register(r *gin.Engine, svc *chat.Service, hub *realtime.Hub) {
	r.GET("/ws/conversations/:conversation_id", controllers.SubscribeWS(svc, hub))
}
