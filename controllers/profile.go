package controllers

import (
	"ChatLink/middleware"
	"ChatLink/models"
	utils "ChatLink/pkg/utills"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Profile serves the caller's own profile: GET returns it, PUT updates the
// public fields (username, profile image) and optionally the password.
func Profile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)

		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
			return
		}

		if c.Request.Method == http.MethodGet {
			c.JSON(http.StatusOK, gin.H{
				"id":                user.ID,
				"email":             user.Email,
				"username":          user.Username,
				"profile_image_url": user.ProfileImageURL,
			})
			return
		}

		// PUT
		var body struct {
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
			Password        string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		newUsername := strings.TrimSpace(body.Username)
		if newUsername == "" {
			newUsername = user.Username
		}

		// check username uniqueness
		if newUsername != user.Username {
			var t models.User
			if err := db.Where("username = ?", newUsername).First(&t).Error; err == nil {
				c.JSON(http.StatusConflict, gin.H{"msg": "Username already exists"})
				return
			}
		}

		user.Username = newUsername
		if strings.TrimSpace(body.ProfileImageURL) != "" {
			user.ProfileImageURL = strings.TrimSpace(body.ProfileImageURL)
		}
		if body.Password != "" {
			if !utils.HasLetter(body.Password) || !utils.HasNumber(body.Password) {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "New password must contain at least one letter and one number"})
				return
			}
			if err := user.SetPassword(body.Password); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to set password"})
				return
			}
		}
		if err := db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to update profile"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"msg": "Profile updated successfully"})
	}
}
