package tokenstore

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Revocation store for JWT ids. Backed by redis when configured, so logout
// survives restarts and is shared across instances; process-local otherwise.
var (
	mu            sync.RWMutex
	revokedTokens = map[string]time.Time{} // jti -> local entry expiry

	rdb *redis.Client

	// matches the issued token lifetime; a token past this is expired anyway
	revokeTTL = 24 * time.Hour
)

// UseRedis switches the store to the given client. Call once at startup.
func UseRedis(client *redis.Client) {
	mu.Lock()
	defer mu.Unlock()
	rdb = client
}

func RevokeToken(jti string) {
	if jti == "" {
		return
	}
	now := time.Now()
	mu.Lock()
	client := rdb
	// sweep expired local entries so the map stays bounded by the token
	// lifetime; redis handles its own TTLs
	for k, exp := range revokedTokens {
		if exp.Before(now) {
			delete(revokedTokens, k)
		}
	}
	revokedTokens[jti] = now.Add(revokeTTL)
	mu.Unlock()

	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Set(ctx, redisKey(jti), "1", revokeTTL).Err(); err != nil {
			log.Printf("[token] redis revoke failed, kept in memory: %v", err)
		}
	}
}

func IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	mu.RLock()
	client := rdb
	exp, inMemory := revokedTokens[jti]
	mu.RUnlock()
	if inMemory && time.Now().Before(exp) {
		return true
	}

	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := client.Exists(ctx, redisKey(jti)).Result()
		if err != nil {
			log.Printf("[token] redis lookup failed: %v", err)
			return false
		}
		return n > 0
	}
	return false
}

func redisKey(jti string) string {
	return "revoked-jti:" + jti
}
