package middleware

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/cache"
)

const (
	APIMaxRequests      = 100 // per IP per minute
	APIWindow           = time.Minute
	CheckoutMaxRequests = 5 // per user per window
	CheckoutWindow      = 10 * time.Minute
)

// RateLimit allows limit hits per window for each key. An empty key skips
// the check. Redis errors let the request through.
func RateLimit(rdb *redis.Client, prefix string, limit int64, window time.Duration, key func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := key(c)
		if k == "" {
			c.Next()
			return
		}

		n, ttl, err := cache.IncrementRateLimit(c.Request.Context(), rdb, prefix+":"+k, window)
		if err != nil {
			log.Printf("⚠️ Rate limit check failed (%s): %v", prefix, err)
			c.Next()
			return
		}

		remaining := limit - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if n > limit {
			retry := int(math.Ceil(ttl.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apperr.Result{
				Message: fmt.Sprintf("too many requests, retry in %d seconds", retry),
			})
			return
		}
		c.Next()
	}
}

// APIRateLimit limits every route per client IP.
func APIRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return RateLimit(rdb, "api_rate", APIMaxRequests, APIWindow, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// CheckoutRateLimit limits order creation per user. Must run after AuthRequired.
func CheckoutRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return RateLimit(rdb, "checkout_rate", CheckoutMaxRequests, CheckoutWindow, UserID)
}
