// Package jwttoken validates the HS256 access tokens the gateway issues.
// Token issuance lives upstream; this package only verifies and extracts
// the acting user's identity.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "appaccounts/pkg/domain-errors"
)

// Claims carries the actor identity stamped onto mutations.
type Claims struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

// Service validates access tokens against a shared signing key.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey string, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeAuth, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeAuth, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeAuth, "invalid token")
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, dErrors.New(dErrors.CodeAuth, "invalid token subject")
	}
	return claims, nil
}

// SignToken mints a token for the given identity. Used by tests and local
// tooling; production tokens come from the upstream gateway.
func (s *Service) SignToken(userID uuid.UUID, fullName string, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   userID.String(),
		FullName: fullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}
