package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/rhosegym/gymcore/pkg/authtoken"
	"github.com/rhosegym/gymcore/pkg/config"
	"github.com/rhosegym/gymcore/pkg/response"
	"github.com/rhosegym/gymcore/pkg/types"
)

const (
	CtxUserIDKey = "auth_user_id"
	CtxRoleKey   = "auth_user_role"
)

// AuthMiddleware validates the Bearer token and stores the caller's identity
// on the gin context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT(response.APIResponseCodeBadRequest, "missing bearer token"))
			return
		}
		claims, err := authtoken.Parse(token, cfg.Auth.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT(response.APIResponseCodeBadRequest, "invalid or expired token"))
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxRoleKey, claims.Role)

		// propagate to the request context so service-level logs carry user_id
		ctx := context.WithValue(c.Request.Context(), "user_id", claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRoles gates a group to the given roles. Must run after AuthMiddleware.
func RequireRoles(roles ...types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxRoleKey)
		role, isRole := v.(types.Role)
		if !ok || !isRole || !lo.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorT(response.APIResponseCodeBadRequest, "insufficient permissions"))
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller's id, empty when unauthenticated.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// Role returns the authenticated caller's role.
func Role(c *gin.Context) types.Role {
	if v, ok := c.Get(CtxRoleKey); ok {
		if r, ok := v.(types.Role); ok {
			return r
		}
	}
	return ""
}
