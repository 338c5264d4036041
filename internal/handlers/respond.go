package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"unimerch_back_end/internal/apperr"
)

// RespondError writes err as a Result with its mapped status.
func RespondError(c *gin.Context, err error) {
	status, result := apperr.ToResult(err)
	if status == http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, result)
}

func RespondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, apperr.OK(message, data))
}

// BindJSON decodes the body or answers 400.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, apperr.Validation("invalid request body: "+err.Error(), nil))
		return false
	}
	return true
}

// ParamUUID reads a path parameter as a UUID or answers 400.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, apperr.Field(name, "must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// Page reads ?limit= and ?offset=. Bad values fall back to zero, which
// services treat as defaults.
func Page(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}
