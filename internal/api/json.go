package api

import (
	"encoding/json"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/mitchellh/mapstructure"
)

const (
	Success string = "success" //The request ended successfully
	Error   string = "error"   //The request ended with error - check the message field
)

// NoResults is the message of a successful list response whose filtered data is empty
const NoResults = "no results"

type GenericRequest struct {
	Data map[string]any `json:"data"`
}

func NewGenericResponse(status string, message string, data any) gin.H {
	return gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	}
}

func NewErrorResponse(message string) gin.H {
	return gin.H{
		"status":  Error,
		"message": message,
		"data":    gin.H{},
	}
}

func NewErrorResponsef(format string, a ...any) gin.H {
	return NewErrorResponse(fmt.Sprintf(format, a...))
}

// DecodeDataTo decodes the request's data map into output, which must be a pointer
func (genericRequest *GenericRequest) DecodeDataTo(output any) error {
	return mapstructure.Decode(genericRequest.Data, output)
}

func (genericRequest *GenericRequest) Load(input []byte) error {
	return json.Unmarshal(input, genericRequest)
}

type RestJsonResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"The request was sent successfully"`
	Data    any    `json:"data"`
}

type LoginRequest struct {
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
}

// SessionResponse is the data of a successful sign-in
type SessionResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expiresAt"`
}
