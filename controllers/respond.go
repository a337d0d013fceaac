package controllers

import (
	"ChatLink/chat"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps chat sentinel errors onto transport status codes.
// Anything unrecognized is a storage failure: report it, apply nothing.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
	case errors.Is(err, chat.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"msg": "not allowed"})
	case errors.Is(err, chat.ErrEmptyText):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "message text is required"})
	case errors.Is(err, chat.ErrTextTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "message text is too long"})
	case errors.Is(err, chat.ErrSelfConversation):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "cannot start a conversation with yourself"})
	case errors.Is(err, chat.ErrBadCursor):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid pagination cursor"})
	default:
		log.Printf("[http] storage error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
	}
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}
