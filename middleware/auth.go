package middleware

import (
	"ChatLink/pkg/config"
	tokenstore "ChatLink/pkg/token"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextUserIDKey = "current_user_id"
	ContextJTIKey    = "current_jti"
)

// AuthMiddleware resolves the bearer token to a stable user id. The
// messaging core trusts the resolved identity as-is.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization header"})
			return
		}

		userID, jti, ok := ResolveToken(parts[1])
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid token"})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextJTIKey, jti)
		c.Next()
	}
}

// ResolveToken validates a JWT and returns the subject user id and jti.
// Shared by the HTTP middleware and the websocket query-token path.
func ResolveToken(tokenStr string) (userID uint, jti string, ok bool) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// only accept HMAC signing
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", false
	}
	claims, okClaims := token.Claims.(jwt.MapClaims)
	if !okClaims {
		return 0, "", false
	}

	jti, _ = claims["jti"].(string)
	if tokenstore.IsRevoked(jti) {
		return 0, "", false
	}

	var sub string
	if s, okSub := claims["sub"].(string); okSub {
		sub = s
	} else if f, okSub := claims["sub"].(float64); okSub {
		// jwt lib may parse numeric as float64
		sub = strconv.Itoa(int(f))
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, "", false
	}
	return uint(id), jti, true
}

// CurrentUserID reads the authenticated user id set by AuthMiddleware.
func CurrentUserID(c *gin.Context) uint {
	v, _ := c.Get(ContextUserIDKey)
	id, _ := v.(uint)
	return id
}
