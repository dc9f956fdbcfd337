package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonwraymond/fanout/observe"
)

// GinIdentityKey is the gin context key holding the *Identity.
const GinIdentityKey = "auth.identity"

// Middleware authenticates every request with a. On success the identity is
// attached to the request context and to the gin context; on failure the
// request is aborted with 401.
func Middleware(a Authenticator, logger observe.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = observe.NewNopLogger()
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := a.Authenticate(ctx, c.Request.Header)
		if err != nil {
			logger.Debug(ctx, "authentication failed",
				observe.F("authenticator", a.Name()),
				observe.F("path", c.FullPath()),
				observe.F("error", err),
			)
			c.Header("WWW-Authenticate", `Bearer realm="fanout"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": publicMessage(err)})
			return
		}

		c.Set(GinIdentityKey, id)
		c.Request = c.Request.WithContext(WithIdentity(ctx, id))
		c.Next()
	}
}

// Require aborts with 403 unless az permits action for the request's
// identity. It must run after Middleware.
func Require(az Authorizer, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := az.Authorize(ctx, IdentityFromContext(ctx), action); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// IdentityFromGin returns the identity set by Middleware, or nil.
func IdentityFromGin(c *gin.Context) *Identity {
	v, ok := c.Get(GinIdentityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*Identity)
	return id
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "missing bearer token"
	case errors.Is(err, ErrTokenExpired):
		return "token expired"
	default:
		return "invalid token"
	}
}
