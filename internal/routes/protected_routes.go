package routes

import (
	"portfolio-site/internal/auth"
	"portfolio-site/internal/constants"
	"portfolio-site/internal/editor"
	"portfolio-site/internal/middlewares"

	"github.com/gin-gonic/gin"
)

func RegisterProtectedRoutes(r *gin.Engine, controllerRegistry map[int]any) {

	authGroup := r.Group("/api/admin")

	authGroup.Use(middlewares.AuthHandler())
	{
		// auth
		authApi := controllerRegistry[constants.Auth].(auth.Api)
		authGroup.GET("/session", authApi.GetSession)
		authGroup.DELETE("/session", authApi.SignOut)

		// editor
		editorApi := controllerRegistry[constants.Editor].(editor.Api)
		authGroup.GET("/editor", editorApi.GetEditorSession)
		authGroup.POST("/editor/tab", editorApi.SwitchTab)
		authGroup.POST("/editor/load/:id", editorApi.LoadRecord)
		authGroup.POST("/editor/reset", editorApi.ResetDraft)
		authGroup.PATCH("/editor/draft", editorApi.EditDraft)
		authGroup.PUT("/editor/tags", editorApi.SelectTags)
		authGroup.POST("/editor/tags/:id/toggle", editorApi.ToggleTag)
		authGroup.POST("/editor/save", editorApi.SaveDraft)
		authGroup.POST("/editor/image", editorApi.AttachImage)
		authGroup.POST("/uploads", editorApi.UploadImage)

		// tags
		authGroup.GET("/tags", editorApi.GetTags)
		authGroup.POST("/tags", editorApi.CreateTag)
	}
}
