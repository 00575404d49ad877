package routes

import (
	"portfolio-site/internal/constants"
	"portfolio-site/internal/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterUtilityRoutes(r *gin.Engine, controllerRegistry map[int]any) {
	statusController := controllerRegistry[constants.Status].(*controllers.StatusController)

	r.GET("/heartbeat", controllers.GetHeartBeat)
	r.GET("/status", statusController.GetStatus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
