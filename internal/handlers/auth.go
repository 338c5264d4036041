package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"

	"unimerch_back_end/internal/accounts"
	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/middleware"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/utils"
)

type Accounts interface {
	SignIn(ctx context.Context, userID, email, name, provider string) (*models.Customer, error)
	Me(ctx context.Context, userID string) (*accounts.Me, error)
}

// Revoker blacklists a token id until it would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

type AuthHandler struct {
	accounts Accounts
	tokens   Revoker
	secret   string
	now      func() time.Time

	// completeAuth finishes the provider round-trip.
	completeAuth func(w http.ResponseWriter, r *http.Request) (goth.User, error)
}

func NewAuthHandler(accounts Accounts, tokens Revoker, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		tokens:       tokens,
		secret:       jwtSecret,
		now:          time.Now,
		completeAuth: gothic.CompleteUserAuth,
	}
}

func withProvider(c *gin.Context) bool {
	provider := c.Param("provider")
	if _, err := goth.GetProvider(provider); err != nil {
		RespondError(c, apperr.Field("provider", "unsupported identity provider"))
		return false
	}
	c.Request = gothic.GetContextWithProvider(c.Request, provider)
	return true
}

// BeginAuth redirects to the identity provider.
func (h *AuthHandler) BeginAuth(c *gin.Context) {
	if !withProvider(c) {
		return
	}
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// CallbackAuth completes the provider login, records the customer and
// issues a session token.
func (h *AuthHandler) CallbackAuth(c *gin.Context) {
	if !withProvider(c) {
		return
	}
	user, err := h.completeAuth(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apperr.Result{Message: "login failed: " + err.Error()})
		return
	}
	h.signIn(c, user)
}

func (h *AuthHandler) signIn(c *gin.Context, user goth.User) {
	name := user.Name
	if name == "" {
		name = user.NickName
	}
	customer, err := h.accounts.SignIn(c.Request.Context(), user.Provider+":"+user.UserID, user.Email, name, user.Provider)
	if err != nil {
		RespondError(c, err)
		return
	}
	token, claims, err := utils.GenerateJWT(h.secret, customer, h.now())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, "signed in", gin.H{
		"token":      token,
		"expires_at": claims.ExpiresAt.Time,
		"customer":   customer,
	})
}

// Logout revokes the caller's token.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apperr.Result{Message: "missing token"})
		return
	}
	if h.tokens != nil && claims.ExpiresAt != nil {
		if err := h.tokens.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Sub(h.now())); err != nil {
			RespondError(c, apperr.Database("revoke token", err))
			return
		}
	}
	_ = gothic.Logout(c.Writer, c.Request)
	RespondOK(c, http.StatusOK, "signed out", nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	me, err := h.accounts.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, "", me)
}
