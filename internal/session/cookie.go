package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCookie = errors.New("invalid session cookie")

// Claims is the payload of the session cookie.
type Claims struct {
	SessionToken string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieCodec signs the session token into the cookie value and back.
type CookieCodec struct {
	secret []byte
	now    func() time.Time
}

func NewCookieCodec(secret []byte, now func() time.Time) *CookieCodec {
	if now == nil {
		now = time.Now
	}
	return &CookieCodec{secret: secret, now: now}
}

func (c *CookieCodec) Encode(token string, expiresAt time.Time) (string, error) {
	claims := Claims{
		SessionToken: token,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(c.now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode verifies value and returns the session token it carries.
func (c *CookieCodec) Decode(value string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", errors.Join(ErrInvalidCookie, err)
	}
	if !token.Valid || claims.SessionToken == "" {
		return "", ErrInvalidCookie
	}
	return claims.SessionToken, nil
}
