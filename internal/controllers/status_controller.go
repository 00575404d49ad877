package controllers

import (
	"net/http"
	"portfolio-site/internal/api"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCounter reports the number of open editing sessions
type SessionCounter interface {
	Len() int
}

type StatusController struct {
	Started  time.Time
	Sessions SessionCounter
}

type Status struct {
	Uptime         string `json:"uptime"`
	EditorSessions int    `json:"editorSessions"`
}

func GetHeartBeat(c *gin.Context) {
	c.AbortWithStatus(http.StatusOK)
}

// GetStatus
//
// @ID getStatus
// @Tags utility
// @Router /status [get]
// @Success 200 {object} api.RestJsonResponse{data=Status}
func (sc *StatusController) GetStatus(c *gin.Context) {
	status := Status{Uptime: time.Since(sc.Started).Round(time.Second).String()}
	if sc.Sessions != nil {
		status.EditorSessions = sc.Sessions.Len()
	}
	c.JSON(http.StatusOK, api.NewGenericResponse(api.Success, "running", status))
}
