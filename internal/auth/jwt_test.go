package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binkeyit_backend/internal/config"
	"binkeyit_backend/internal/models"
)

func testTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.AccessSecret = "test-access-secret"
	cfg.JWT.RefreshSecret = "test-refresh-secret"
	cfg.JWT.VerifySecret = "test-verify-secret"
	cfg.JWT.AccessTTL = config.Duration(24 * time.Hour)
	cfg.JWT.RefreshTTL = config.Duration(7 * 24 * time.Hour)
	cfg.JWT.VerifyTTL = config.Duration(time.Hour)
	return NewTokenManager(cfg)
}

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()

	m := testTokenManager(t)
	userID := uuid.New()

	for _, kind := range []TokenKind{TokenAccess, TokenRefresh, TokenVerify} {
		token, err := m.Generate(kind, userID, models.RoleUser)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := m.Parse(kind, token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, kind, claims.Kind)
	}
}

func TestParse_RoleOnlyInAccessToken(t *testing.T) {
	t.Parallel()

	m := testTokenManager(t)
	userID := uuid.New()

	accessToken, err := m.Generate(TokenAccess, userID, models.RoleAdmin)
	require.NoError(t, err)
	claims, err := m.Parse(TokenAccess, accessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	refreshToken, err := m.Generate(TokenRefresh, userID, models.RoleAdmin)
	require.NoError(t, err)
	claims, err = m.Parse(TokenRefresh, refreshToken)
	require.NoError(t, err)
	assert.Empty(t, claims.Role)
}

func TestParse_WrongKindRejected(t *testing.T) {
	t.Parallel()

	m := testTokenManager(t)
	token, err := m.Generate(TokenRefresh, uuid.New(), models.RoleUser)
	require.NoError(t, err)

	// refresh-токен не должен приниматься как access
	_, err = m.Parse(TokenAccess, token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	m := testTokenManager(t)
	token, err := m.Generate(TokenAccess, uuid.New(), models.RoleUser)
	require.NoError(t, err)

	// сдвигаем часы за пределы срока жизни
	m.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	_, err = m.Parse(TokenAccess, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParse_Tampered(t *testing.T) {
	t.Parallel()

	m := testTokenManager(t)
	token, err := m.Generate(TokenAccess, uuid.New(), models.RoleUser)
	require.NoError(t, err)

	_, err = m.Parse(TokenAccess, token+"x")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = m.Parse(TokenAccess, "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
