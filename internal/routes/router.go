package routes

import (
	"portfolio-site/internal/constants"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/middlewares"

	"github.com/gin-gonic/gin"
)

func InitRouter(engine *gin.Engine, controllerRegistry map[int]any, allowedOrigin string, logger logging.Logger) {
	InitMiddleware(engine, controllerRegistry, allowedOrigin, logger)

	RegisterProtectedRoutes(engine, controllerRegistry)
	RegisterPublicRoutes(engine, controllerRegistry)
	RegisterUtilityRoutes(engine, controllerRegistry)
}

// InitMiddleware installs the middlewares every request passes, including resolving
// the bearer token into the request's authentication context
func InitMiddleware(engine *gin.Engine, controllerRegistry map[int]any, allowedOrigin string, logger logging.Logger) {
	resolver := controllerRegistry[constants.Auth].(middlewares.AuthResolver)

	engine.Use(
		middlewares.RequestID(),
		middlewares.Metrics(),
		middlewares.CORSMiddleware(allowedOrigin),
		middlewares.ResolveAuth(resolver, logger),
	)
}
