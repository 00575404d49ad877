package routes

import (
	"portfolio-site/internal/auth"
	"portfolio-site/internal/constants"
	"portfolio-site/internal/content"

	"github.com/gin-gonic/gin"
)

func RegisterPublicRoutes(r *gin.Engine, controllerRegistry map[int]any) {
	contentApi := controllerRegistry[constants.Content].(content.Api)

	api := r.Group("/api")
	{
		api.GET("/blog-posts/", contentApi.GetPosts)
		api.GET("/blog-posts/:slug/", contentApi.GetPostBySlug)
		api.GET("/projects/", contentApi.GetProjects)
		api.GET("/projects/:id/", contentApi.GetProjectById)
		api.GET("/ctfs/", contentApi.GetCtfs)
		api.GET("/ctfs/:slug/", contentApi.GetCtfBySlug)
		api.GET("/tags/", contentApi.GetTags)
		api.GET("/about/", contentApi.GetAbout)

		// auth
		authApi := controllerRegistry[constants.Auth].(auth.Api)
		api.POST("/admin/session", authApi.SignIn)
	}
}
