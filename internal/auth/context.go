package auth

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// State is the authentication state of a request. The zero value is Loading.
type State int

const (
	// Loading means the credentials of the request have not been resolved yet
	Loading State = iota
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Context is the explicitly passed authentication context of an operator
type Context struct {
	State     State     `json:"state"`
	Username  string    `json:"username,omitempty"`
	SessionID string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

func (c Context) IsAuthenticated() bool {
	return c.State == Authenticated && len(c.SessionID) > 0
}

// Anonymous is the resolved context of a request without valid credentials
func Anonymous() Context {
	return Context{State: Unauthenticated}
}

const ginContextKey = "auth_context"

// Set stores the resolved context on the gin context
func Set(c *gin.Context, ac Context) {
	c.Set(ginContextKey, ac)
}

// FromGin returns the context resolved for the request, or a Loading context if none was resolved
func FromGin(c *gin.Context) Context {
	if value, ok := c.Get(ginContextKey); ok {
		if ac, ok := value.(Context); ok {
			return ac
		}
	}
	return Context{}
}
