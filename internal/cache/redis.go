package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis opens a client and checks the connection.
func NewRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("REDIS_HOST is not set")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cannot reach redis: %w", err)
	}
	log.Println("✅ Connected to Redis")
	return rdb, nil
}

// --- Token revocation ---

// Tokens tracks session tokens revoked before they expire.
type Tokens struct {
	rdb *redis.Client
}

func NewTokens(rdb *redis.Client) *Tokens {
	return &Tokens{rdb: rdb}
}

// Revoke blacklists tokenID for ttl, normally the token's remaining life.
func (t *Tokens) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return t.rdb.Set(ctx, "blacklist:"+tokenID, "revoked", ttl).Err()
}

// IsRevoked fails open: a Redis outage does not lock everybody out.
func (t *Tokens) IsRevoked(ctx context.Context, tokenID string) bool {
	n, err := t.rdb.Exists(ctx, "blacklist:"+tokenID).Result()
	if err != nil {
		log.Printf("⚠️ Token blacklist check failed: %v", err)
		return false
	}
	return n > 0
}

// --- Rate limiting ---

// IncrementRateLimit counts a hit in the fixed window that key belongs to.
// The first hit of a window sets its expiry.
func IncrementRateLimit(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, time.Duration, error) {
	n, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if n == 1 {
		if err := rdb.PExpire(ctx, key, window).Err(); err != nil {
			return n, window, err
		}
		return n, window, nil
	}
	ttl, err := rdb.PTTL(ctx, key).Result()
	if err != nil {
		return n, window, err
	}
	if ttl < 0 {
		// a crash between INCR and PEXPIRE left the key without expiry
		rdb.PExpire(ctx, key, window)
		ttl = window
	}
	return n, ttl, nil
}
