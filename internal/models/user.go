package models

import (
	"errors"
	"golang.org/x/crypto/bcrypt"
	"html"
	"strings"
	"time"
)

type User struct {
	Model
	Username string `gorm:"size:255;not null;unique" json:"username"`
	Password string `gorm:"size:100;not null" json:"-"`
}

// RevokedSession is a signed-out session id; the row is kept until its token expires
type RevokedSession struct {
	SessionID string    `gorm:"primaryKey;size:64" json:"sessionId"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
}

func (RevokedSession) TableName() string {
	return "revoked_sessions"
}

func Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// Prepare normalizes the username before lookup
func (u *User) Prepare() {
	u.Username = html.EscapeString(strings.TrimSpace(u.Username))
}

func (u *User) Validate() error {
	if len(u.Username) == 0 {
		return errors.New("required username")
	}
	if len(u.Password) == 0 {
		return errors.New("required password")
	}
	return nil
}
