package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomarket/ecocoins-backend/pkg/config"
	"github.com/ecomarket/ecocoins-backend/pkg/enums"
)

var testCfg = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "ecomarket",
	ExpirationMinutes: 30,
}

func TestMintAndParseAccessToken(t *testing.T) {
	now := time.Now().UTC()
	token, err := MintAccessToken(testCfg, now, AccessTokenPayload{UserID: "user-42", Role: enums.UserRoleCustomer})
	require.NoError(t, err)

	claims, err := ParseAccessToken(testCfg, token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, enums.UserRoleCustomer, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestParseAccessTokenRejectsBadTokens(t *testing.T) {
	now := time.Now().UTC()
	token, err := MintAccessToken(testCfg, now, AccessTokenPayload{UserID: "user-1", Role: enums.UserRoleAdmin})
	require.NoError(t, err)

	wrongSecret := testCfg
	wrongSecret.Secret = "other"
	_, err = ParseAccessToken(wrongSecret, token)
	assert.Error(t, err)

	wrongIssuer := testCfg
	wrongIssuer.Issuer = "someone-else"
	_, err = ParseAccessToken(wrongIssuer, token)
	assert.Error(t, err)

	expired, err := MintAccessToken(testCfg, now.Add(-2*time.Hour), AccessTokenPayload{UserID: "user-1", Role: enums.UserRoleCustomer})
	require.NoError(t, err)
	_, err = ParseAccessToken(testCfg, expired)
	assert.Error(t, err)

	parts := strings.Split(token, ".")
	_, err = ParseAccessToken(testCfg, parts[0]+"."+parts[1]+".tampered")
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsUnknownRole(t *testing.T) {
	claims := AccessTokenClaims{
		UserID: "user-1",
		Role:   "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testCfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testCfg.Secret))
	require.NoError(t, err)

	_, err = ParseAccessToken(testCfg, signed)
	assert.Error(t, err)
}

func TestMintAccessTokenValidation(t *testing.T) {
	now := time.Now()
	_, err := MintAccessToken(config.JWTConfig{}, now, AccessTokenPayload{UserID: "u", Role: enums.UserRoleCustomer})
	assert.Error(t, err)
	_, err = MintAccessToken(testCfg, now, AccessTokenPayload{UserID: " ", Role: enums.UserRoleCustomer})
	assert.Error(t, err)
	_, err = MintAccessToken(testCfg, now, AccessTokenPayload{UserID: "u", Role: "root"})
	assert.Error(t, err)
}
