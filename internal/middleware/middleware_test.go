package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/permissions"
	"unimerch_back_end/internal/utils"
)

var secret = strings.Repeat("k", 32)

func init() { gin.SetMode(gin.TestMode) }

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, id string) bool { return r[id] }

type staticRoles map[string][]string

func (s staticRoles) ActiveStaffRoles(_ context.Context, userID string) ([]string, error) {
	return s[userID], nil
}

func token(t *testing.T, userID string) (string, *utils.Claims) {
	t.Helper()
	raw, claims, err := utils.GenerateJWT(secret, &models.Customer{ID: userID, Email: userID + "@up.edu.ph"}, time.Now())
	require.NoError(t, err)
	return raw, claims
}

func do(r *gin.Engine, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	revoked := revokedSet{}
	r := gin.New()
	r.GET("/me", AuthRequired(secret, revoked), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	raw, claims := token(t, "student-1")
	w := do(r, http.MethodGet, "/me", raw)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "student-1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "garbage").Code)

	revoked[claims.ID] = true
	w = do(r, http.MethodGet, "/me", raw)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token revoked")
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/products", OptionalAuth(secret, nil), func(c *gin.Context) {
		c.String(http.StatusOK, "caller=%s", UserID(c))
	})

	raw, _ := token(t, "student-1")
	assert.Equal(t, "caller=student-1", do(r, http.MethodGet, "/products", raw).Body.String())
	assert.Equal(t, "caller=", do(r, http.MethodGet, "/products", "").Body.String())
	assert.Equal(t, "caller=", do(r, http.MethodGet, "/products", "bad").Body.String())
}

func TestRequireCapability(t *testing.T) {
	gate := permissions.NewGate(staticRoles{"analyst-1": {"ANALYST"}}, permissions.DefaultCatalog(), nil)
	r := gin.New()
	r.GET("/audit", AuthRequired(secret, nil),
		RequireCapability(gate, models.ActionAuditView, permissions.ReportsRead),
		func(c *gin.Context) { c.Status(http.StatusNoContent) })

	analyst, _ := token(t, "analyst-1")
	customer, _ := token(t, "student-1")
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/audit", analyst).Code)

	w := do(r, http.MethodGet, "/audit", customer)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "reports.canRead")
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	r := gin.New()
	r.GET("/ping", RateLimit(rdb, "test", 2, time.Minute, func(c *gin.Context) string { return c.ClientIP() }),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", "").Code)
	w := do(r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = do(r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", "").Code)

	// an outage lets traffic through
	mr.Close()
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", "").Code)
}

func TestCheckoutRateLimitSkipsAnonymous(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	r := gin.New()
	r.POST("/orders", CheckoutRateLimit(rdb), func(c *gin.Context) { c.Status(http.StatusCreated) })
	for i := 0; i < CheckoutMaxRequests+2; i++ {
		assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/orders", "").Code)
	}
	assert.Empty(t, mr.Keys())
}
