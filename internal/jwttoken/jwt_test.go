package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "appaccounts/pkg/domain-errors"
)

func signRaw(svc *Service, claims Claims) (string, error) {
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Minute))
	claims.Issuer = svc.issuer
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(svc.signingKey)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "appaccounts-test")
	userID := uuid.New()

	token, err := svc.SignToken(userID, "Ada Admin", time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "Ada Admin", claims.FullName)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewService("test-signing-key", "appaccounts-test")

	token, err := svc.SignToken(uuid.New(), "Ada Admin", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAuth))
}

func TestValidateTokenWrongKey(t *testing.T) {
	svc := NewService("test-signing-key", "appaccounts-test")
	other := NewService("another-key", "appaccounts-test")

	token, err := other.SignToken(uuid.New(), "Ada Admin", time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAuth))
}

func TestValidateTokenWrongIssuer(t *testing.T) {
	svc := NewService("test-signing-key", "appaccounts-test")
	other := NewService("test-signing-key", "some-other-service")

	token, err := other.SignToken(uuid.New(), "Ada Admin", time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAuth))
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewService("test-signing-key", "appaccounts-test")

	_, err := svc.ValidateToken("not-a-token")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAuth))
}

func TestValidateTokenNonUUIDSubject(t *testing.T) {
	svc := NewService("test-signing-key", "appaccounts-test")

	claims := Claims{UserID: "bob", FullName: "Bob"}
	token, err := signRaw(svc, claims)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAuth))
}
