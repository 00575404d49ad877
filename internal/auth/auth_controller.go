package auth

import (
	"errors"
	"io"
	"net/http"
	"portfolio-site/internal/api"
	"portfolio-site/internal/environment"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/models"

	"github.com/gin-gonic/gin"
)

// Api defines the admin session endpoints.
//
// @Summary Authentication API
type Api interface {

	// SignIn exchanges credentials for a session token
	SignIn(c *gin.Context)

	// GetSession returns the authentication context of the request
	GetSession(c *gin.Context)

	// SignOut ends the session of the request
	SignOut(c *gin.Context)
}

// SessionDropper discards per-session state held elsewhere (the editor workspace)
type SessionDropper interface {
	Drop(sessionId string)
}

// Controller wires environment dependencies with authentication service methods.
type Controller struct {
	*environment.Env
	*AuthService
	Sessions SessionDropper
}

// ensure Controller implements Api
var _ Api = &Controller{}

// SignIn
//
// @ID signIn
// @Summary Sign in with username and password
// @Tags auth
// @Router /api/admin/session [post]
// @Success 200 {object} api.RestJsonResponse{data=api.SessionResponse}
// @Failure 401 {object} api.RestJsonResponse{data=string}
func (ac *Controller) SignIn(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		ac.Env.LogErrorf(logging.GetLogTypeAuth(), "Error reading login info: %v", err)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.NewErrorResponse("Error reading login info"))
		return
	}

	request := api.GenericRequest{}
	if err = request.Load(body); err != nil {
		ac.Env.LogErrorf(logging.GetLogTypeAuth(), "Error loading request data: %v", err)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.NewErrorResponse("Error reading login info"))
		return
	}

	login := api.LoginRequest{}
	if err = request.DecodeDataTo(&login); err != nil {
		ac.Env.LogErrorf(logging.GetLogTypeAuth(), "Error loading user data: %v", err)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.NewErrorResponse("Error reading user info"))
		return
	}

	user := models.User{Username: login.Username, Password: login.Password}
	user.Prepare()
	if err = user.Validate(); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.NewErrorResponsef("Error validating User: %v", err))
		return
	}

	session, token, err := ac.AuthService.SignIn(c.Request.Context(), user)
	if errors.Is(err, ErrInvalidCredentials) {
		ac.Env.LogWarnf(logging.GetLogTypeAuth(), "failed sign in for %s", user.Username)
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.NewErrorResponse("Login not successful"))
		return
	}
	if err != nil {
		ac.Env.LogErrorf(logging.GetLogTypeAuth(), "sign in failed: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("Login failed"))
		return
	}

	c.JSON(http.StatusOK, api.NewGenericResponse(api.Success, "", api.SessionResponse{
		Token:     token,
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt.Unix(),
	}))
}

// GetSession
//
// @ID getSession
// @Summary Current authentication context
// @Tags auth
// @Router /api/admin/session [get]
// @Success 200 {object} api.RestJsonResponse{data=Context}
func (ac *Controller) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, api.NewGenericResponse(api.Success, "", FromGin(c)))
}

// SignOut
//
// @ID signOut
// @Summary Sign out; the token is rejected afterwards
// @Tags auth
// @Router /api/admin/session [delete]
// @Success 200 {object} api.RestJsonResponse{data=Context}
func (ac *Controller) SignOut(c *gin.Context) {
	session := FromGin(c)

	if err := ac.AuthService.SignOut(c.Request.Context(), session); err != nil {
		ac.Env.LogErrorf(logging.GetLogTypeAuth(), "sign out failed: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("Sign out failed"))
		return
	}

	if ac.Sessions != nil {
		ac.Sessions.Drop(session.SessionID)
	}

	c.JSON(http.StatusOK, api.NewGenericResponse(api.Success, "signed out", Anonymous()))
}
