// middlewares/ws_auth.go
package middlewares

import (
	"strings"

	"github.com/goktugarikci/galeryBlog-sub000/pkg/resp"
	"github.com/goktugarikci/galeryBlog-sub000/utils"

	"github.com/gin-gonic/gin"
)

// WSIdentityMiddleware reads an optional JWT from the query or the header.
// No token lets the connection through as a guest; a bad token is rejected.
func WSIdentityMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tokenStr = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if tokenStr == "" {
			c.Next()
			return
		}

		claims, err := utils.ParseToken(tokenStr, secret)
		if err != nil {
			resp.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set(utils.CtxUserID, claims.UserID)
		c.Set(utils.CtxRole, claims.Role)
		c.Next()
	}
}
