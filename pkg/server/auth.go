package server

import (
	"crypto/subtle"
	"strings"

	"github.com/cadsweep/cadsweep/pkg/models"
	"github.com/gin-gonic/gin"
)

const (
	ReasonMissingHeader = "invalid:header"
	ReasonInvalidScheme = "invalid:scheme"
	ReasonInvalidKeys   = "invalid:keys"
)

// Require the API keys as HTTP Basic credentials
func BasicAuth(credentials models.Credentials) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorization := c.GetHeader("Authorization")
		if authorization == "" {
			authError(c, "Authorization header is empty", ReasonMissingHeader)
			return
		}

		scheme, _, _ := strings.Cut(authorization, " ")
		if scheme != "Basic" {
			authError(c, "Authorization header scheme must be Basic", ReasonInvalidScheme)
			return
		}

		accessKey, secretKey, ok := c.Request.BasicAuth()
		if !ok {
			authError(c, "malformed Basic credentials", ReasonInvalidScheme)
			return
		}

		validAccess := subtle.ConstantTimeCompare([]byte(accessKey), []byte(credentials.AccessKey)) == 1
		validSecret := subtle.ConstantTimeCompare([]byte(secretKey), []byte(credentials.SecretKey)) == 1
		if !validAccess || !validSecret {
			c.Set("access_key", accessKey)
			authError(c, "invalid access or secret key", ReasonInvalidKeys)
			return
		}

		c.Set("access_key", accessKey)
	}
}

func authError(ctx *gin.Context, err string, reason string) {
	ctx.Set("reason", reason)
	ctx.AbortWithStatusJSON(401, models.ErrorResponse{
		Error:  err,
		Reason: reason,
	})
}
