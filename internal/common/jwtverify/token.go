package jwtverify

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded content of a bearer token: who it was issued to
// and when it stops being valid.
type Claims struct {
	Username  string
	ExpiresAt time.Time
}

var (
	ErrInvalidToken  = errors.New("token is not valid")
	ErrMissingClaims = errors.New("missing required token claims")
)

func ExtractTokenFromHeader(r *http.Request) (string, bool) {
	raw := r.Header.Get("Authorization")
	if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(raw, "Bearer "), true
}

// ParseToken verifies the HS256 signature and expiry and returns the claims.
// jwt.Parse rejects expired tokens on its own via the exp claim.
func ParseToken(tokenString string, secret []byte) (Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		if err == nil {
			err = ErrInvalidToken
		}
		return Claims{}, err
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return Claims{}, ErrMissingClaims
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, ErrMissingClaims
	}

	return Claims{
		Username:  sub,
		ExpiresAt: exp.Time,
	}, nil
}
