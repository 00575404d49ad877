package middlewares

import (
	"context"
	"net/http"
	"portfolio-site/internal/api"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/logging"

	"github.com/gin-gonic/gin"
)

// AuthResolver turns an Authorization header into an authentication context
type AuthResolver interface {
	Resolve(ctx context.Context, authorization string) (auth.Context, error)
}

// ResolveAuth resolves the credentials of every request and stores the result with auth.Set.
// Invalid tokens resolve to an unauthenticated context; rejecting them is left to AuthHandler.
func ResolveAuth(resolver AuthResolver, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac, err := resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			logger.LogDebugf(logging.GetLogTypeAuth(), "request %s carries unusable credentials: %v", c.Request.URL.Path, err)
		}
		auth.Set(c, ac)
		c.Next()
	}
}

// AuthHandler lets only authenticated requests pass
func AuthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ac := auth.FromGin(c)

		switch ac.State {
		case auth.Authenticated:
			if ac.IsAuthenticated() {
				c.Next()
				return
			}
		case auth.Loading:
			c.AbortWithStatusJSON(http.StatusForbidden, api.NewErrorResponse("Your request is not authorized."))
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, api.NewErrorResponse("Invalid or missing authorization token"))
	}
}
