package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/catalogsync/internal/pkg/auth"
	"github.com/polkiloo/catalogsync/internal/server/http/dto"
)

// AdminKeyHeader carries the admin key on guarded endpoints.
const AdminKeyHeader = "X-Admin-Key"

// AdminRequired guards mutating endpoints when an admin key is configured.
func AdminRequired(verifier pkgAuth.KeyVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verifier.Enabled() {
			c.Next()
			return
		}

		err := verifier.Verify(c.GetHeader(AdminKeyHeader))
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, pkgAuth.ErrMissingKey):
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Envelope{Success: false, Message: "Admin key required"})
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, dto.Envelope{Success: false, Message: "Invalid admin key"})
		}
	}
}
