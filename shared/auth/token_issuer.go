package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserClaims identifies the user a bearer token was issued to.
type UserClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenIssuer issues and verifies signed, time-limited bearer tokens.
// Tokens are not revocable: a token stays valid until it expires.
type TokenIssuer struct {
	jwtAuth   JWTAuthenticator
	secret    string
	issuer    string
	expiresIn time.Duration
	now       func() time.Time
}

// NewTokenIssuer creates a TokenIssuer signing with secret. The issuer is also used as audience.
func NewTokenIssuer(secret, issuer string, expiresIn time.Duration) *TokenIssuer {
	return &TokenIssuer{
		jwtAuth:   NewJWTAuthenticator(issuer, issuer),
		secret:    secret,
		issuer:    issuer,
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

// Issue returns a signed token embedding userID.
func (i *TokenIssuer) Issue(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id is required")
	}

	now := i.now()
	claims := UserClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiresIn)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.issuer},
		},
	}

	return i.jwtAuth.GenerateToken(claims, i.secret)
}

// Verify checks the token and returns the user id it was issued to.
func (i *TokenIssuer) Verify(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}

	claims := &UserClaims{}
	if _, err := i.jwtAuth.ValidateTokenWithClaims(token, i.secret, claims); err != nil {
		return "", ErrInvalidToken
	}

	if claims.UserID == "" || claims.Subject != claims.UserID {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
