package controllers

import (
	"ChatLink/chat"
	"ChatLink/middleware"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func ListConversations(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)
		summaries, err := svc.ListConversations(c.Request.Context(), uid)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, summaries)
	}
}

// CreateConversation finds or creates the single conversation with the given
// peer. Repeating the call returns the same conversation.
func CreateConversation(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)

		var body struct {
			PeerID uint `json:"peer_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.PeerID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "peer_id is required"})
			return
		}

		conv, err := svc.GetOrCreate(c.Request.Context(), uid, body.PeerID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":         conv.ID,
			"peer_id":    conv.PeerOf(uid),
			"unread":     conv.UnreadFor(uid),
			"created_at": conv.CreatedAt,
		})
	}
}

// GetHistory pages a conversation's messages. Query params: limit, before
// (RFC3339Nano) and before_id; echo the next_before/next_before_id pair from
// the previous response to walk backward. Returned page is oldest-to-newest,
// tombstones included.
func GetHistory(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)
		convID, ok := uintParam(c, "conversation_id")
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
			return
		}

		limit, _ := strconv.Atoi(c.Query("limit"))

		var before *time.Time
		var beforeID uint64
		if raw := c.Query("before"); raw != "" {
			t, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				respondServiceError(c, chat.ErrBadCursor)
				return
			}
			before = &t
			if rawID := c.Query("before_id"); rawID != "" {
				beforeID, err = strconv.ParseUint(rawID, 10, 64)
				if err != nil {
					respondServiceError(c, chat.ErrBadCursor)
					return
				}
			}
		}

		msgs, err := svc.History(c.Request.Context(), convID, uid, limit, before, uint(beforeID))
		if err != nil {
			respondServiceError(c, err)
			return
		}

		views := make([]chat.MessageView, 0, len(msgs))
		for i := range msgs {
			views = append(views, chat.ViewOf(&msgs[i]))
		}

		resp := gin.H{"conversation_id": convID, "messages": views}
		// Hand the oldest row back as the next cursor. The id component is
		// what keeps equal-timestamp rows at a page boundary from being
		// skipped, so clients should always echo both params.
		if len(msgs) > 0 {
			resp["next_before"] = msgs[0].CreatedAt.Format(time.RFC3339Nano)
			resp["next_before_id"] = msgs[0].ID
		}
		c.JSON(http.StatusOK, resp)
	}
}

func SendMessage(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)
		convID, ok := uintParam(c, "conversation_id")
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
			return
		}

		var body struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		msg, err := svc.Send(c.Request.Context(), convID, uid, body.Text)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, chat.ViewOf(msg))
	}
}

func MarkRead(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)
		convID, ok := uintParam(c, "conversation_id")
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
			return
		}

		if err := svc.MarkRead(c.Request.Context(), convID, uid); err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "read"})
	}
}

func DeleteMessage(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)
		msgID, ok := uintParam(c, "message_id")
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
			return
		}

		if err := svc.Delete(c.Request.Context(), msgID, uid); err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "message deleted"})
	}
}

func UnreadTotal(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)
		total, err := svc.UnreadTotal(c.Request.Context(), uid)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"unread_total": total})
	}
}
