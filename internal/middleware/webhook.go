package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	appErrors "github.com/lifesaving-resources/instructor-api/pkg/errors"
	"github.com/lifesaving-resources/instructor-api/pkg/response"
)

const webhookSecretHeader = "X-Webhook-Secret"

// WebhookSecret guards the form intake endpoint with a shared secret header.
// An empty configured secret disables the check.
func WebhookSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		provided := c.GetHeader(webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid webhook secret"))
			c.Abort()
			return
		}
		c.Next()
	}
}
