package middlewares

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lumeray/royalty_backend/models"
	"github.com/lumeray/royalty_backend/utils"
)

// SessionMiddleware lifts the authenticated identity set by the auth
// perimeter (upstream gateway) into the request context. Authentication
// itself happens outside this service; here the X-User-Id and X-User-Role
// headers are the contract. Admin status gates report uploads.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Request.Header.Get("X-User-Id")
		if header == "" {
			c.Next()
			return
		}
		userId, err := strconv.Atoi(header)
		if err != nil || userId <= 0 {
			c.Next()
			return
		}

		ctx := utils.SetUserIdInContext(c.Request.Context(), userId)
		role := models.UserRole(c.Request.Header.Get("X-User-Role"))
		ctx = utils.SetIsAdminInContext(ctx, role == models.UserRoleAdmin)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
