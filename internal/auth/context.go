package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/lab-booking-backend/internal/rbac"
)

// GetPrincipal returns the authenticated principal stored by AuthRequired.
// The second return value is false when the request is unauthenticated.
func GetPrincipal(c *gin.Context) (rbac.Principal, bool) {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(rbac.Principal); ok {
			return p, true
		}
	}
	return rbac.Principal{}, false
}
