package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binkeyit_backend/internal/auth"
	"binkeyit_backend/internal/config"
	"binkeyit_backend/internal/models"
	"binkeyit_backend/internal/services/dto"
	"binkeyit_backend/pkg/apperrors"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.AccessSecret = "test-access-secret"
	cfg.JWT.RefreshSecret = "test-refresh-secret"
	cfg.JWT.VerifySecret = "test-verify-secret"
	cfg.JWT.AccessTTL = config.Duration(24 * time.Hour)
	cfg.JWT.RefreshTTL = config.Duration(7 * 24 * time.Hour)
	cfg.JWT.VerifyTTL = config.Duration(time.Hour)
	return cfg
}

func newTestAuthService(t *testing.T) (*AuthServiceImpl, *fakeUserRepo, *fakeEmailProvider) {
	t.Helper()
	repo := newFakeUserRepo()
	emails := &fakeEmailProvider{}
	svc := NewAuthService(repo, emails, auth.NewTokenManager(testConfig()), "http://localhost:3000")
	svc.generateOTP = func() (string, error) { return "123456", nil }
	return svc, repo, emails
}

func registerUser(t *testing.T, svc *AuthServiceImpl) *dto.UserResponse {
	t.Helper()
	user, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Test Buyer",
		Email:    "buyer@test.com",
		Password: "super_password123",
	})
	require.NoError(t, err)
	return user
}

func TestRegister_Success(t *testing.T) {
	t.Parallel()

	svc, repo, emails := newTestAuthService(t)

	user := registerUser(t, svc)
	assert.Equal(t, "buyer@test.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.StatusActive, user.Status)
	assert.False(t, user.IsVerified)

	// письмо верификации ушло ровно одно и содержит токен
	require.Len(t, emails.verifications, 1)
	assert.Equal(t, "buyer@test.com", emails.verifications[0].to)
	assert.Contains(t, emails.verifications[0].url, "http://localhost:3000/verify-email?token=")

	stored, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "super_password123", stored.PasswordHash)
	assert.True(t, auth.CheckPassword("super_password123", stored.PasswordHash))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, emails := newTestAuthService(t)
	registerUser(t, svc)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Other",
		Email:    "buyer@test.com",
		Password: "another_password",
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	// повторная попытка не шлет писем
	assert.Len(t, emails.verifications, 1)
}

func TestRegister_WeakPassword(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestAuthService(t)
	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Test",
		Email:    "short@test.com",
		Password: "1234567",
	})
	assert.ErrorIs(t, err, apperrors.ErrWeakPassword)
	assert.Empty(t, repo.users)
}

func TestRegister_EmailFailureRollsBack(t *testing.T) {
	t.Parallel()

	svc, repo, emails := newTestAuthService(t)
	emails.failNext = true

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Test Buyer",
		Email:    "buyer@test.com",
		Password: "super_password123",
	})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeExternalServiceError, appErr.Code)

	// созданная запись откатилась, email снова свободен
	assert.Empty(t, repo.users)
	registerUser(t, svc)
}

func TestVerifyEmail(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestAuthService(t)
	user := registerUser(t, svc)

	token, err := svc.tokens.Generate(auth.TokenVerify, user.ID, models.RoleUser)
	require.NoError(t, err)

	require.NoError(t, svc.VerifyEmail(context.Background(), token))
	stored, _ := repo.FindByID(context.Background(), user.ID)
	assert.True(t, stored.IsVerified)

	// повторное подтверждение не ошибка
	require.NoError(t, svc.VerifyEmail(context.Background(), token))
}

func TestVerifyEmail_InvalidToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	assert.ErrorIs(t, svc.VerifyEmail(context.Background(), "garbage"), apperrors.ErrInvalidVerificationToken)
	// битая ссылка - негодный ввод, а не отказ в авторизации
	assert.Equal(t, 400, apperrors.ErrInvalidVerificationToken.HTTPCode)

	// access-токен не годится для верификации почты
	user := registerUser(t, svc)
	accessToken, err := svc.tokens.Generate(auth.TokenAccess, user.ID, models.RoleUser)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.VerifyEmail(context.Background(), accessToken), apperrors.ErrInvalidVerificationToken)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestAuthService(t)
	user := registerUser(t, svc)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "buyer@test.com",
		Password: "super_password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	assert.Equal(t, user.ID, resp.User.ID)

	stored, _ := repo.FindByID(context.Background(), user.ID)
	assert.Equal(t, resp.Tokens.RefreshToken, stored.RefreshToken)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLogin_Failures(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestAuthService(t)
	user := registerUser(t, svc)

	// неизвестный email
	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@test.com",
		Password: "whatever1",
	})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	// неверный пароль
	_, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "buyer@test.com",
		Password: "wrong_password",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	// заблокированная учетка
	stored, _ := repo.FindByID(context.Background(), user.ID)
	stored.Status = models.StatusSuspended
	require.NoError(t, repo.Update(context.Background(), stored))

	_, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "buyer@test.com",
		Password: "super_password123",
	})
	assert.ErrorIs(t, err, apperrors.ErrAccountNotActive)
}

func TestRefresh_RotatesToken(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestAuthService(t)
	user := registerUser(t, svc)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "buyer@test.com",
		Password: "super_password123",
	})
	require.NoError(t, err)

	pair, err := svc.Refresh(context.Background(), resp.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	stored, _ := repo.FindByID(context.Background(), user.ID)
	assert.Equal(t, pair.RefreshToken, stored.RefreshToken)

	// старый refresh-токен после ротации отклоняется
	_, err = svc.Refresh(context.Background(), resp.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrRefreshTokenMismatch)
}

func TestRefresh_AfterLogoutFails(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	user := registerUser(t, svc)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "buyer@test.com",
		Password: "super_password123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), user.ID))

	_, err = svc.Refresh(context.Background(), resp.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrRefreshTokenMismatch)
}

func TestRefresh_InvalidToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	registerUser(t, svc)

	_, err := svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestAuthService(t)
	user := registerUser(t, svc)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "buyer@test.com",
		Password: "super_password123",
	})
	require.NoError(t, err)

	// неверный текущий пароль
	err = svc.ChangePassword(context.Background(), user.ID, &dto.ChangePasswordRequest{
		CurrentPassword: "wrong_password",
		NewPassword:     "brand_new_password",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, &dto.ChangePasswordRequest{
		CurrentPassword: "super_password123",
		NewPassword:     "brand_new_password",
	}))

	// смена пароля отзывает refresh-токен
	stored, _ := repo.FindByID(context.Background(), user.ID)
	assert.Empty(t, stored.RefreshToken)
	_, err = svc.Refresh(context.Background(), resp.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrRefreshTokenMismatch)

	// новый пароль работает
	_, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "buyer@test.com",
		Password: "brand_new_password",
	})
	assert.NoError(t, err)
}

func TestForgotPasswordFlow(t *testing.T) {
	t.Parallel()

	svc, _, emails := newTestAuthService(t)
	registerUser(t, svc)

	require.NoError(t, svc.ForgotPassword(context.Background(), "buyer@test.com"))
	require.Len(t, emails.otps, 1)
	assert.Equal(t, "123456", emails.otps[0].otp)

	// проверка кода не гасит его
	require.NoError(t, svc.VerifyForgotPasswordOTP(context.Background(), "buyer@test.com", "123456"))
	require.NoError(t, svc.VerifyForgotPasswordOTP(context.Background(), "buyer@test.com", "123456"))

	// неверный код
	assert.ErrorIs(t,
		svc.VerifyForgotPasswordOTP(context.Background(), "buyer@test.com", "654321"),
		apperrors.ErrInvalidOTP)

	require.NoError(t, svc.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
		Email:       "buyer@test.com",
		OTP:         "123456",
		NewPassword: "reset_password99",
	}))

	// код погашен, повторный сброс не проходит
	assert.ErrorIs(t, svc.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
		Email:       "buyer@test.com",
		OTP:         "123456",
		NewPassword: "yet_another_pass",
	}), apperrors.ErrInvalidOTP)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "buyer@test.com",
		Password: "reset_password99",
	})
	assert.NoError(t, err)
}

func TestForgotPassword_OTPExpiry(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	registerUser(t, svc)

	require.NoError(t, svc.ForgotPassword(context.Background(), "buyer@test.com"))

	// через 16 минут код просрочен
	svc.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	assert.ErrorIs(t,
		svc.VerifyForgotPasswordOTP(context.Background(), "buyer@test.com", "123456"),
		apperrors.ErrOTPExpired)
	assert.ErrorIs(t, svc.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
		Email:       "buyer@test.com",
		OTP:         "123456",
		NewPassword: "reset_password99",
	}), apperrors.ErrOTPExpired)
}

func TestForgotPassword_EmailFailureClearsOTP(t *testing.T) {
	t.Parallel()

	svc, repo, emails := newTestAuthService(t)
	user := registerUser(t, svc)
	emails.failNext = true

	err := svc.ForgotPassword(context.Background(), "buyer@test.com")
	require.Error(t, err)

	stored, _ := repo.FindByID(context.Background(), user.ID)
	assert.Empty(t, stored.ForgotPasswordOTP)
	assert.Nil(t, stored.ForgotPasswordOTPExpiry)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc, _, emails := newTestAuthService(t)
	err := svc.ForgotPassword(context.Background(), "nobody@test.com")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.Empty(t, emails.otps)
}
