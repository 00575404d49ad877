package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/samborkent/uuidv7"
)

const issuer = "portfolio-site"

type Claims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.StandardClaims
}

// TokenIssuer signs and validates HS256 session tokens. The token id (jti) is the session id.
type TokenIssuer struct {
	SigningKey []byte
	Lifetime   time.Duration
}

func (t TokenIssuer) Generate(username string, now time.Time) (string, Claims, error) {
	if len(t.SigningKey) == 0 {
		return "", Claims{}, errors.New("no signing key configured")
	}

	claims := Claims{
		Username: username,
		Roles:    []string{"admin"},
		StandardClaims: jwt.StandardClaims{
			Id:        uuidv7.New().String(),
			Subject:   username,
			ExpiresAt: now.Add(t.Lifetime).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(t.SigningKey)
	return tokenString, claims, err
}

func (t TokenIssuer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.SigningKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if len(claims.Id) == 0 {
		return nil, errors.New("token carries no session id")
	}
	return claims, nil
}
