package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/permissions"
	"unimerch_back_end/internal/utils"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxClaims = "claims"
)

// Revocations reports logged-out tokens.
type Revocations interface {
	IsRevoked(ctx context.Context, tokenID string) bool
}

// AuthRequired rejects requests without a valid, unrevoked bearer token.
func AuthRequired(secret string, revoked Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, msg := authenticate(c, secret, revoked)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperr.Result{Message: msg})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(secret string, revoked Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if claims, _ := authenticate(c, secret, revoked); claims != nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// bearer reads the token from the Authorization header. Browsers cannot set
// headers on WebSocket handshakes, so upgrades may pass ?access_token=.
func bearer(c *gin.Context) (string, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if websocket.IsWebSocketUpgrade(c.Request) {
			if raw := c.Query("access_token"); raw != "" {
				return raw, ""
			}
		}
		return "", "missing token"
	}
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return "", "invalid authorization header"
	}
	return raw, ""
}

func authenticate(c *gin.Context, secret string, revoked Revocations) (*utils.Claims, string) {
	raw, msg := bearer(c)
	if raw == "" {
		return nil, msg
	}

	claims, err := utils.ParseJWT(secret, raw)
	if err != nil {
		log.Printf("❌ JWT rejected: %v", err)
		return nil, "invalid token"
	}
	if revoked != nil && revoked.IsRevoked(c.Request.Context(), claims.ID) {
		return nil, "token revoked"
	}
	return claims, ""
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxClaims, claims)
}

// UserID returns the authenticated caller, or "".
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// Claims returns the parsed token of the caller, if any.
func Claims(c *gin.Context) (*utils.Claims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}

// Actor describes the caller for permission checks and audit entries.
func Actor(c *gin.Context) permissions.Actor {
	return permissions.Actor{
		UserID:    UserID(c),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
