package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/lab-booking-backend/internal/pkg/response"
)

const principalKey = "principal"

// AuthRequired is a Gin middleware that validates the JWT from
// Authorization: Bearer <token> and stores the resulting Principal
// in the request context.
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Envelope{
				Success: false,
				Error:   "missing Authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Envelope{
				Success: false,
				Error:   "invalid Authorization header format",
			})
			return
		}

		principal, err := jwtManager.ParseAndValidate(parts[1])
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, ErrTokenExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Envelope{
				Success: false,
				Error:   msg,
			})
			return
		}

		c.Set(principalKey, principal)

		c.Next()
	}
}
