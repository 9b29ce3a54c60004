// Package auth implements the session token service and credential hashing.
// Tokens are stateless HS256 JWTs: a token is valid iff its signature
// verifies and the expiry has not passed. There is no revocation list.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single error returned for any verification failure
// (bad signature, malformed token, expired). Callers never learn which.
var ErrInvalidToken = errors.New("invalid token")

// Claims embeds the registered claims and carries the identity reference
// plus the display handle.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// TokenService issues and verifies signed, time-limited session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService constructs a TokenService with the given signing secret
// and token validity duration.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl}
}

// Issue produces a signed token embedding the user's id and username with an
// expiry of ttl from now. Stateless: no side effects.
func (s *TokenService) Issue(userID, username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:   userID,
		Username: username,
	})
	return token.SignedString(s.secret)
}

// Verify parses and validates a token string and returns its claims.
// Any failure collapses to ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
