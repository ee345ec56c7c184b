package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsefeed/pulsefeed/models"
	"github.com/pulsefeed/pulsefeed/utils"
)

// AdminRequired allows only admin and super-admin roles. Must run after
// AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := ctx.GetString(ContextRoleKey)
		if role != models.RoleAdmin && role != models.RoleSuperAdmin {
			utils.Error(ctx, http.StatusForbidden, 40310, "admin access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// SuperAdminRequired allows only the super-admin role.
func SuperAdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetString(ContextRoleKey) != models.RoleSuperAdmin {
			utils.Error(ctx, http.StatusForbidden, 40311, "super admin access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
