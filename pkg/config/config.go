package config

import (
	"log"
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	AppEnv       string
	IsStaging    bool
	IsProduction bool

	JWTSecret   string
	Port        string
	DatabaseDSN string
	RedisAddr   string

	// runtime tunables
	RateLimitWindowSeconds int
	RateLimitCapacity      int
	MessageMaxLen          int
	HistoryPageSize        int
	HistoryPageMax         int
	WSSendBuffer           int
	ProfileCacheTTLSeconds int
	ProfileCacheMaxItems   int
)

// loadAppEnv loads .env for non-production environments only; production
// reads everything from the host environment.
func loadAppEnv() {
	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env loaded: %v", err)
	}
}

func init() {
	loadAppEnv()

	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "" {
		AppEnv = "staging"
	}
	if !slices.Contains([]string{"staging", "production"}, AppEnv) {
		log.Fatal("environment variable APP_ENV must be 'staging' or 'production'")
	}
	IsStaging = AppEnv == "staging"
	IsProduction = AppEnv == "production"

	JWTSecret = os.Getenv("JWT_SECRET_KEY")
	DatabaseDSN = os.Getenv("DATABASE_DSN")
	RedisAddr = os.Getenv("REDIS_ADDR")
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "5000"
	}

	// Tunables with defaults
	RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 5)
	MessageMaxLen = atoiOr(os.Getenv("MESSAGE_MAX_LEN"), 2000)
	HistoryPageSize = atoiOr(os.Getenv("HISTORY_PAGE_SIZE"), 50)
	HistoryPageMax = atoiOr(os.Getenv("HISTORY_PAGE_MAX"), 100)
	WSSendBuffer = atoiOr(os.Getenv("WS_SEND_BUFFER"), 64)
	ProfileCacheTTLSeconds = atoiOr(os.Getenv("PROFILE_CACHE_TTL_SECONDS"), 300)
	ProfileCacheMaxItems = atoiOr(os.Getenv("PROFILE_CACHE_MAX_ITEMS"), 1000)

	if IsProduction && JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set in production")
	}

	log.Printf("[config] AppEnv=%s IsStaging=%v IsProduction=%v", AppEnv, IsStaging, IsProduction)
	log.Printf("[config] RateLimit window=%ds capacity=%d", RateLimitWindowSeconds, RateLimitCapacity)
	log.Printf("[config] MessageMaxLen=%d HistoryPageSize=%d/%d WSSendBuffer=%d",
		MessageMaxLen, HistoryPageSize, HistoryPageMax, WSSendBuffer)
	log.Printf("[config] RedisAddrPresent=%v", RedisAddr != "")
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
