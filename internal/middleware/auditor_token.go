package middleware

import (
	"context"
	"net/http"
	"strings"

	"qms/internal/model"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
)

// ContextAuditorToken is the gin context key the validated token is stored under
const ContextAuditorToken = "auditorToken"

// TokenConsumer validates an auditor token's plaintext value against a resource
// and atomically consumes one use on success
type TokenConsumer interface {
	Consume(ctx context.Context, plaintext, resource string) (*model.AuditorAccessToken, error)
}

// RequireAuditorToken authenticates external auditor routes. The token is read
// from the X-Auditor-Token header, falling back to a Bearer Authorization header.
// Every authenticated request consumes one use of the token.
func RequireAuditorToken(consumer TokenConsumer, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		plaintext := c.GetHeader("X-Auditor-Token")
		if plaintext == "" {
			authHeader := c.GetHeader("Authorization")
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				plaintext = parts[1]
			}
		}
		if plaintext == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Auditor access token is missing"))
			return
		}

		token, err := consumer.Consume(c.Request.Context(), plaintext, resource)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		c.Set(ContextAuditorToken, token)
		c.Next()
	}
}
