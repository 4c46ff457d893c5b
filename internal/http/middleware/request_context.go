package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

// AttachRequestContext installs the per-request correlation carrier. Runs
// before auth so unauthenticated requests are still correlated.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx := requestdata.With(c.Request.Context(), &requestdata.RequestData{
			Method: strings.ToUpper(c.Request.Method),
			Route:  route,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
