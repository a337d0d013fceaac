package auth

import (
	"ChatLink/controllers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterPublic registers the unauthenticated auth routes.
func RegisterPublic(r *gin.Engine, db *gorm.DB) {
	r.POST("/register", controllers.Register(db))
	r.POST("/login", controllers.Login(db))
}

// RegisterProtected registers auth routes that need a valid token.
func RegisterProtected(g *gin.RouterGroup, db *gorm.DB) {
	g.POST("/logout", controllers.Logout())
}
