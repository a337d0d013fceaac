package controllers

import (
	"ChatLink/chat"
	"ChatLink/middleware"
	"ChatLink/realtime"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

// SubscribeWS binds the subscribe-to-channel operation: one socket per
// conversation view. Auth via ?token=JWT since websocket clients cannot set
// headers. The server only pushes event frames; inbound frames are read
// solely to notice close and answer pings. Delivery is best-effort, so a
// client that reconnects must reconcile through history/list.
func SubscribeWS(svc *chat.Service, hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := strings.TrimSpace(c.Query("token"))
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "missing token query"})
			return
		}
		uid, _, ok := middleware.ResolveToken(tokenStr)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid token"})
			return
		}

		convID, ok := uintParam(c, "conversation_id")
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
			return
		}

		// Membership is checked before the upgrade so an outsider gets a
		// plain HTTP error, not a half-open socket.
		if _, err := svc.Conversation(c.Request.Context(), convID, uid); err != nil {
			if errors.Is(err, chat.ErrForbidden) {
				c.JSON(http.StatusForbidden, gin.H{"msg": "not a participant"})
				return
			}
			respondServiceError(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ws] upgrade error: %v", err)
			return
		}
		defer conn.Close()

		conn.SetReadLimit(1 << 20) // 1MB
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})

		sub := hub.Subscribe(convID)
		defer hub.Unsubscribe(sub)

		// Reader goroutine: drains frames so pings are answered and a close
		// from the client unblocks the write loop below.
		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()

		for {
			select {
			case ev, open := <-sub.C:
				if !open {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(ev); err != nil {
					log.Printf("[ws] write error on conversation %d: %v", convID, err)
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-readDone:
				return
			}
		}
	}
}
