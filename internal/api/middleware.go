package api

import (
	"net/http"
	"strconv"

	"storefront/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	headerUserID = "X-User-ID"
	headerRole   = "X-User-Role"

	ctxUserID = "user_id"
	ctxRole   = "role"
)

// identityMiddleware extracts the (user id, role) pair attached by the
// upstream gateway. The pair is treated as pre-validated; requests without
// it are anonymous and rejected by identityRequired where identity matters.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.GetHeader(headerUserID)
		role := c.GetHeader(headerRole)

		if idStr != "" {
			if userID, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				c.Set(ctxUserID, userID)
			}
		}
		if role == "" {
			role = models.RoleCustomer
		}
		c.Set(ctxRole, role)

		c.Next()
	}
}

func identityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxUserID); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		c.Next()
	}
}

// requireRole aborts with 403 unless the caller's role is one of the given
// roles.
func requireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "insufficient role",
		})
	}
}

func callerID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

func callerRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}
