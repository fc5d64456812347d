package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binkeyit_backend/pkg/apperrors"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("super_password123")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "super_password123", hash)

	assert.True(t, CheckPassword("super_password123", hash))
	assert.False(t, CheckPassword("wrong_password", hash))
	assert.False(t, CheckPassword("", hash))
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePassword("12345678"))
	assert.NoError(t, ValidatePassword("a-much-longer-password"))
	assert.ErrorIs(t, ValidatePassword("1234567"), apperrors.ErrWeakPassword)
	assert.ErrorIs(t, ValidatePassword(""), apperrors.ErrWeakPassword)
}
