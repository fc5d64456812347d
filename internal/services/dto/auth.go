package dto

import (
	"time"

	"github.com/google/uuid"

	"binkeyit_backend/internal/models"
)

// RegisterRequest - запрос на регистрацию
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest - запрос на вход
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair - пара выпущенных токенов
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse - ответ на успешный вход
type LoginResponse struct {
	User   *UserResponse `json:"user"`
	Tokens TokenPair     `json:"tokens"`
}

// RefreshRequest - запрос обновления токенов (тело опционально,
// токен обычно приходит в cookie)
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest - смена пароля авторизованным пользователем
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// ForgotPasswordRequest - запрос отправки OTP
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyOTPRequest - проверка OTP
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

// ResetPasswordRequest - установка нового пароля по OTP
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// UserResponse - публичное представление пользователя
type UserResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Avatar      string            `json:"avatar"`
	Mobile      string            `json:"mobile"`
	Role        models.UserRole   `json:"role"`
	Status      models.UserStatus `json:"status"`
	IsVerified  bool              `json:"is_verified"`
	LastLoginAt *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewUserResponse собирает ответ из модели, не раскрывая секретных полей
func NewUserResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Avatar:      u.Avatar,
		Mobile:      u.Mobile,
		Role:        u.Role,
		Status:      u.Status,
		IsVerified:  u.IsVerified,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
