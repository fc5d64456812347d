package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"binkeyit_backend/internal/auth"
	"binkeyit_backend/internal/email"
	"binkeyit_backend/internal/logger"
	"binkeyit_backend/internal/models"
	"binkeyit_backend/internal/repositories"
	"binkeyit_backend/internal/services/dto"
	"binkeyit_backend/pkg/apperrors"
)

const otpTTL = 15 * time.Minute

// normalizeEmail приводит email к каноническому виду перед
// записью и поиском, иначе уникальный индекс не спасает от
// дублей вида User@x и user@x
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req *dto.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, userEmail string) error
	VerifyForgotPasswordOTP(ctx context.Context, userEmail, otp string) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
}

type AuthServiceImpl struct {
	userRepo      repositories.UserRepository
	emailProvider email.Provider
	tokens        *auth.TokenManager
	frontendURL   string

	now         func() time.Time
	generateOTP func() (string, error)
}

func NewAuthService(
	userRepo repositories.UserRepository,
	emailProvider email.Provider,
	tokens *auth.TokenManager,
	frontendURL string,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:      userRepo,
		emailProvider: emailProvider,
		tokens:        tokens,
		frontendURL:   frontendURL,
		now:           time.Now,
		generateOTP:   generateNumericOTP,
	}
}

// Register - регистрация нового пользователя.
// Если письмо верификации отправить не удалось, созданная запись
// удаляется и регистрация считается неуспешной: пользователь без
// письма не сможет подтвердить почту.
func (s *AuthServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        normalizeEmail(req.Email),
		PasswordHash: hashedPassword,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
		IsVerified:   false,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	verifyToken, err := s.tokens.Generate(auth.TokenVerify, user.ID, user.Role)
	if err != nil {
		s.compensateRegistration(ctx, user.ID)
		return nil, apperrors.InternalError(err)
	}

	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, verifyToken)
	if err := s.emailProvider.SendVerification(ctx, user.Email, user.Name, verifyURL); err != nil {
		s.compensateRegistration(ctx, user.ID)
		return nil, apperrors.ErrExternalService(err, "auth", "Failed to send verification email")
	}

	return dto.NewUserResponse(user), nil
}

func (s *AuthServiceImpl) compensateRegistration(ctx context.Context, userID uuid.UUID) {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		logger.CtxWithError(ctx, "failed to roll back registration", err, "user_id", userID)
	}
}

// VerifyEmail подтверждает почту по токену из письма.
// Повторное подтверждение не ошибка.
func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(auth.TokenVerify, token)
	if err != nil {
		return apperrors.ErrInvalidVerificationToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}

	if user.IsVerified {
		return nil
	}

	if err := s.userRepo.VerifyUser(ctx, user.ID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// Login - аутентификация пользователя
func (s *AuthServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if user.Status != models.StatusActive {
		return nil, apperrors.ErrAccountNotActive
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	now := s.now()
	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, pair.RefreshToken, &now); err != nil {
		return nil, apperrors.InternalError(err)
	}
	user.LastLoginAt = &now

	return &dto.LoginResponse{
		User:   dto.NewUserResponse(user),
		Tokens: *pair,
	}, nil
}

// Logout отзывает refresh-токен. Access-токен остается валидным
// до истечения своего срока, отзыв не реализуем.
func (s *AuthServiceImpl) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}
	return nil
}

// Refresh обменивает refresh-токен на новую пару. Предъявленный
// токен обязан совпадать со хранимым: ротация инвалидирует все
// ранее выданные refresh-токены.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	claims, err := s.tokens.Parse(auth.TokenRefresh, refreshToken)
	if err != nil {
		if apperrors.Is(err, auth.ErrTokenExpired) {
			return nil, apperrors.New(apperrors.CodeTokenExpired, "auth", "Refresh token has expired", 401)
		}
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.InternalError(err)
	}

	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return nil, apperrors.ErrRefreshTokenMismatch
	}

	if user.Status != models.StatusActive {
		return nil, apperrors.ErrAccountNotActive
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, pair.RefreshToken, nil); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return pair, nil
}

// ChangePassword меняет пароль авторизованного пользователя.
// Хранимый refresh-токен при этом отзывается.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}

	if !auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}

	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hashed); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// ForgotPassword выпускает OTP и отправляет его на почту.
// Если письмо не ушло, код сбрасывается.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, userEmail string) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(userEmail))
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}

	otp, err := s.generateOTP()
	if err != nil {
		return apperrors.InternalError(err)
	}

	expiry := s.now().Add(otpTTL)
	if err := s.userRepo.SetForgotPasswordOTP(ctx, user.ID, otp, expiry); err != nil {
		return apperrors.InternalError(err)
	}

	if err := s.emailProvider.SendPasswordResetOTP(ctx, user.Email, user.Name, otp); err != nil {
		if clearErr := s.userRepo.ClearForgotPasswordOTP(ctx, user.ID); clearErr != nil {
			logger.CtxWithError(ctx, "failed to clear OTP after send failure", clearErr, "user_id", user.ID)
		}
		return apperrors.ErrExternalService(err, "auth", "Failed to send OTP email")
	}

	return nil
}

// VerifyForgotPasswordOTP проверяет код, не погашая его:
// тот же код затем предъявляется в ResetPassword.
func (s *AuthServiceImpl) VerifyForgotPasswordOTP(ctx context.Context, userEmail, otp string) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(userEmail))
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}
	return s.checkOTP(user, otp)
}

// ResetPassword устанавливает новый пароль по действительному OTP.
// Код и хранимый refresh-токен при этом погашаются.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}

	if err := s.checkOTP(user, req.OTP); err != nil {
		return err
	}

	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.ClearForgotPasswordOTP(ctx, user.ID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *AuthServiceImpl) checkOTP(user *models.User, otp string) error {
	if user.ForgotPasswordOTP == "" || user.ForgotPasswordOTPExpiry == nil {
		return apperrors.ErrInvalidOTP
	}
	if s.now().After(*user.ForgotPasswordOTPExpiry) {
		return apperrors.ErrOTPExpired
	}
	if user.ForgotPasswordOTP != otp {
		return apperrors.ErrInvalidOTP
	}
	return nil
}

func (s *AuthServiceImpl) issueTokenPair(user *models.User) (*dto.TokenPair, error) {
	accessToken, err := s.tokens.Generate(auth.TokenAccess, user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.Generate(auth.TokenRefresh, user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// generateNumericOTP выдает криптостойкий 6-значный код
func generateNumericOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
