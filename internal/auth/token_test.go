package auth_test

import (
	"testing"
	"time"

	"github.com/jmcallister/riskgate/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-sufficiently-long-test-secret"

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, time.Hour)

	token, err := tm.GenerateServiceToken("login-service")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "login-service", claims.Service)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, time.Hour)
	other := auth.NewTokenManager("a-different-but-also-long-secret", time.Hour)

	token, err := tm.GenerateServiceToken("login-service")
	require.NoError(t, err)

	claims, err := other.ValidateToken(token)
	assert.Nil(t, claims)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, -time.Minute)

	token, err := tm.GenerateServiceToken("login-service")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	assert.Nil(t, claims)
	assert.Error(t, err)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, time.Hour)

	claims, err := tm.ValidateToken("not-a-token")
	assert.Nil(t, claims)
	assert.Error(t, err)
}
