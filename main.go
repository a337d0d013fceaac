package main

import (
	"ChatLink/chat"
	"ChatLink/middleware"
	"ChatLink/models"
	"ChatLink/pkg/config"
	tokenstore "ChatLink/pkg/token"
	"ChatLink/realtime"
	"ChatLink/routes"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// config init via package init()

	db, err := gorm.Open(mysql.Open(config.DatabaseDSN), &gorm.Config{
		// duplicate-key errors must be recognizable for the pair-unique
		// conversation creation retry
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}); err != nil {
		log.Fatalf("failed migrate: %v", err)
	}

	if config.RedisAddr != "" {
		tokenstore.UseRedis(redis.NewClient(&redis.Options{Addr: config.RedisAddr}))
	}

	middleware.SetRateLimitConfig(
		time.Duration(config.RateLimitWindowSeconds)*time.Second,
		config.RateLimitCapacity,
	)

	hub := realtime.NewHub(config.WSSendBuffer)
	defer hub.Close()

	svc := chat.NewService(db, hub, chat.Options{
		MaxMessageLen:   config.MessageMaxLen,
		HistoryPageSize: config.HistoryPageSize,
		HistoryPageMax:  config.HistoryPageMax,
		ProfileCacheTTL: time.Duration(config.ProfileCacheTTLSeconds) * time.Second,
		ProfileCacheMax: config.ProfileCacheMaxItems,
	})

	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, svc, hub)
	r.Run(":" + config.Port)
}
