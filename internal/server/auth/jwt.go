// Package auth issues and verifies the HS256 tokens used by the local dev
// server in place of the managed user pool authorizer.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
)

// Claims carries the same identity fields a user pool ID token does.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"cognito:username"`
	Email    string `json:"email,omitempty"`
}

// Identity converts the claims into a request identity.
func (c *Claims) Identity() models.Identity {
	return models.Identity{LocalID: c.Username, Email: c.Email, Subject: c.Subject}
}

// AuthorizerClaims renders the claims the way the gateway authorizer places
// them under requestContext.authorizer.claims.
func (c *Claims) AuthorizerClaims() map[string]any {
	out := map[string]any{"cognito:username": c.Username}
	if c.Email != "" {
		out["email"] = c.Email
	}
	if c.Subject != "" {
		out["sub"] = c.Subject
	}
	return out
}

func GenerateToken(ident models.Identity, secretKey []byte, validityDuration time.Duration) (string, error) {
	if ident.LocalID == "" {
		return "", fmt.Errorf("%w: username is required", common.ErrorValidation)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Username: ident.LocalID,
		Email:    ident.Email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString and returns its claims. Every failure,
// expiry included, matches common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", common.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Username == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
