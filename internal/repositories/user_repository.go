package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"binkeyit_backend/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
)

// UserRepository - доступ к таблице users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error

	UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string, lastLogin *time.Time) error
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
	VerifyUser(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	SetForgotPasswordOTP(ctx context.Context, id uuid.UUID, otp string, expiry time.Time) error
	ClearForgotPasswordOTP(ctx context.Context, id uuid.UUID) error
	ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// translateError переводит ошибки gorm в доменные sentinel-ошибки.
// Требует TranslateError: true в конфиге подключения, иначе
// unique violation не станет gorm.ErrDuplicatedKey.
func translateError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrUserAlreadyExists
	}
	return err
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUserAlreadyExists
	}
	// предварительная проверка гоняется с параллельной регистрацией,
	// последнее слово за уникальным индексом
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string, lastLogin *time.Time) error {
	updates := map[string]interface{}{"refresh_token": token}
	if lastLogin != nil {
		updates["last_login_at"] = *lastLogin
	}
	return r.updateByID(ctx, id, updates)
}

func (r *userRepository) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	return r.updateByID(ctx, id, map[string]interface{}{"refresh_token": ""})
}

func (r *userRepository) VerifyUser(ctx context.Context, id uuid.UUID) error {
	return r.updateByID(ctx, id, map[string]interface{}{"is_verified": true})
}

// UpdatePassword меняет хеш и отзывает текущий refresh-токен:
// смена пароля завершает активную сессию.
func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.updateByID(ctx, id, map[string]interface{}{
		"password_hash": passwordHash,
		"refresh_token": "",
	})
}

func (r *userRepository) SetForgotPasswordOTP(ctx context.Context, id uuid.UUID, otp string, expiry time.Time) error {
	return r.updateByID(ctx, id, map[string]interface{}{
		"forgot_password_otp":        otp,
		"forgot_password_otp_expiry": expiry,
	})
}

func (r *userRepository) ClearForgotPasswordOTP(ctx context.Context, id uuid.UUID) error {
	return r.updateByID(ctx, id, map[string]interface{}{
		"forgot_password_otp":        "",
		"forgot_password_otp_expiry": nil,
	})
}

// ClearExpiredOTPs чистит просроченные OTP, вызывается фоновым воркером.
func (r *userRepository) ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("forgot_password_otp <> '' AND forgot_password_otp_expiry < ?", now).
		Updates(map[string]interface{}{
			"forgot_password_otp":        "",
			"forgot_password_otp_expiry": nil,
		})
	return res.RowsAffected, res.Error
}

func (r *userRepository) updateByID(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
