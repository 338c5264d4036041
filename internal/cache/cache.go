package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"unimerch_back_end/internal/models"
)

// DefaultProfileTTL applies when no TTL is configured.
const DefaultProfileTTL = 10 * time.Minute

// CustomerSource loads a profile from the store.
type CustomerSource interface {
	GetCustomer(ctx context.Context, userID string) (*models.Customer, error)
}

// Profiles is a read-through cache of customer profiles with a fixed expiry.
// Pricing reads role and college from here at checkout.
type Profiles struct {
	rdb    *redis.Client
	source CustomerSource
	ttl    time.Duration
}

func NewProfiles(rdb *redis.Client, source CustomerSource, ttl time.Duration) *Profiles {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &Profiles{rdb: rdb, source: source, ttl: ttl}
}

func profileKey(userID string) string { return "customer:" + userID }

// Profile returns the cached profile or loads and caches it. Cache errors
// fall through to the store.
func (p *Profiles) Profile(ctx context.Context, userID string) (*models.Customer, error) {
	key := profileKey(userID)

	data, err := p.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var c models.Customer
		if json.Unmarshal(data, &c) == nil {
			return &c, nil
		}
	} else if err != redis.Nil {
		log.Printf("⚠️ Profile cache read failed for %s: %v", userID, err)
	}

	c, err := p.source.GetCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(c); err == nil {
		if err := p.rdb.Set(ctx, key, data, p.ttl).Err(); err != nil {
			log.Printf("⚠️ Profile cache write failed for %s: %v", userID, err)
		}
	}
	return c, nil
}

// Invalidate drops the cached profile after a role or college change.
func (p *Profiles) Invalidate(ctx context.Context, userID string) {
	if err := p.rdb.Del(ctx, profileKey(userID)).Err(); err != nil {
		log.Printf("⚠️ Profile cache invalidation failed for %s: %v", userID, err)
	}
}
