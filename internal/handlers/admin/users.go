package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"unimerch_back_end/internal/accounts"
	"unimerch_back_end/internal/handlers"
	"unimerch_back_end/internal/middleware"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/permissions"
)

type UserHandler struct {
	accounts *accounts.Service
	roles    permissions.Catalog
}

func NewUserHandler(svc *accounts.Service, roles permissions.Catalog) *UserHandler {
	return &UserHandler{accounts: svc, roles: roles}
}

// RoleCatalog lists the staff roles and their capabilities. The route is
// guarded by middleware.RequireCapability.
func (h *UserHandler) RoleCatalog(c *gin.Context) {
	out := make(map[string][]string, len(h.roles))
	for name, set := range h.roles {
		out[name] = set.Strings()
	}
	handlers.RespondOK(c, http.StatusOK, "", out)
}

func (h *UserHandler) GetCustomer(c *gin.Context) {
	customer, err := h.accounts.GetCustomer(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "", customer)
}

// UpdateProfile sets the pricing role and college of a customer.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		Role    models.CustomerRole `json:"role"`
		College models.College      `json:"college"`
	}
	if !handlers.BindJSON(c, &req) {
		return
	}
	customer, err := h.accounts.UpdateProfile(c.Request.Context(), middleware.Actor(c), c.Param("id"), req.Role, req.College)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "profile updated", customer)
}

func (h *UserHandler) ListStaffRoles(c *gin.Context) {
	roles, err := h.accounts.StaffRoles(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if roles == nil {
		roles = []models.StaffRoleAssignment{}
	}
	handlers.RespondOK(c, http.StatusOK, "", roles)
}

func (h *UserHandler) GrantRole(c *gin.Context) {
	var req struct {
		Role string `json:"role"`
	}
	if !handlers.BindJSON(c, &req) {
		return
	}
	if err := h.accounts.GrantRole(c.Request.Context(), middleware.Actor(c), c.Param("id"), req.Role); err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "role granted", nil)
}

func (h *UserHandler) RevokeRole(c *gin.Context) {
	if err := h.accounts.RevokeRole(c.Request.Context(), middleware.Actor(c), c.Param("id"), c.Param("role")); err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "role revoked", nil)
}

// AuditTrail lists recent audit entries, ?limit= up to 200.
func (h *UserHandler) AuditTrail(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.accounts.AuditTrail(c.Request.Context(), middleware.Actor(c), limit)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "", gin.H{"entries": entries, "total": len(entries)})
}
