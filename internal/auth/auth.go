package auth

import (
	"context"
	"errors"
	"fmt"
	"portfolio-site/internal/database"
	"portfolio-site/internal/environment"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/models"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("username or password false")
	ErrSignedOut          = errors.New("session was signed out")
	ErrMissingToken       = errors.New("an authorization token was not supplied")
)

// DenyList remembers signed-out session ids until their tokens expire
type DenyList interface {
	Deny(ctx context.Context, sessionId string, until time.Time) error
	IsDenied(ctx context.Context, sessionId string) bool
}

type AuthService struct {
	*environment.Env
	Tokens   TokenIssuer
	DenyList DenyList
}

// SignIn verifies the credentials and opens a new session
func (s *AuthService) SignIn(ctx context.Context, user models.User) (Context, string, error) {
	var foundUser models.User

	err := s.FindUserLoginCredentials(ctx, user.Username, &foundUser)
	if errors.Is(err, database.ErrNotFound) {
		return Anonymous(), "", ErrInvalidCredentials
	}
	if err != nil {
		return Anonymous(), "", fmt.Errorf("looking up user: %w", err)
	}

	err = models.VerifyPassword(foundUser.Password, user.Password)
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return Anonymous(), "", ErrInvalidCredentials
	}
	if err != nil {
		return Anonymous(), "", fmt.Errorf("verifying password: %w", err)
	}

	token, claims, err := s.Tokens.Generate(foundUser.Username, s.Now())
	if err != nil {
		return Anonymous(), "", fmt.Errorf("creating JWT: %w", err)
	}

	s.LogInfof(logging.GetLogTypeAuth(), "signed in %s", foundUser.Username)
	return contextOf(claims), token, nil
}

func contextOf(claims Claims) Context {
	return Context{
		State:     Authenticated,
		Username:  claims.Username,
		SessionID: claims.Id,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	}
}

// Resolve turns the Authorization header of a request into an authentication context.
// A missing header resolves to Unauthenticated without error.
func (s *AuthService) Resolve(ctx context.Context, authorization string) (Context, error) {
	if len(authorization) == 0 {
		return Anonymous(), nil
	}

	tokenString, found := strings.CutPrefix(authorization, "Bearer ")
	if !found || len(strings.TrimSpace(tokenString)) == 0 {
		return Anonymous(), ErrMissingToken
	}

	claims, err := s.Tokens.Validate(strings.TrimSpace(tokenString))
	if err != nil {
		return Anonymous(), err
	}

	if s.DenyList != nil && s.DenyList.IsDenied(ctx, claims.Id) {
		return Anonymous(), ErrSignedOut
	}

	return contextOf(*claims), nil
}

// SignOut denies the session until its token expires
func (s *AuthService) SignOut(ctx context.Context, ac Context) error {
	if !ac.IsAuthenticated() {
		return nil
	}
	if s.DenyList != nil {
		if err := s.DenyList.Deny(ctx, ac.SessionID, ac.ExpiresAt); err != nil {
			return err
		}
	}
	s.LogInfof(logging.GetLogTypeAuth(), "signed out %s", ac.Username)
	return nil
}

// EnsureAdmin creates the configured admin user if it does not exist yet
func (s *AuthService) EnsureAdmin(ctx context.Context, username, passwordHash string) error {
	if len(username) == 0 {
		s.LogWarn(logging.GetLogTypeInitialization(), "no admin username configured; skipping admin bootstrap")
		return nil
	}

	var existing models.User
	err := s.FindUserLoginCredentials(ctx, username, &existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("looking up admin: %w", err)
	}

	if _, err = bcrypt.Cost([]byte(passwordHash)); err != nil {
		return fmt.Errorf("admin password hash is not a bcrypt hash: %w", err)
	}

	admin := models.User{Username: username, Password: passwordHash}
	if err = s.InsertUser(ctx, &admin); err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}

	s.LogInfof(logging.GetLogTypeInitialization(), "created admin user %s", username)
	return nil
}
