package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"binkeyit_backend/internal/auth"
	"binkeyit_backend/internal/imageprocessor"
	"binkeyit_backend/internal/logger"
	"binkeyit_backend/internal/repositories"
	"binkeyit_backend/internal/services/dto"
	"binkeyit_backend/internal/storage"
	"binkeyit_backend/pkg/apperrors"
)

type UserService interface {
	UpdateUserDetails(ctx context.Context, userID uuid.UUID, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, file io.Reader, size int64, contentType string) (*dto.UserResponse, error)
}

// UploadLimits - ограничения на загружаемые файлы
type UploadLimits struct {
	MaxSize      int64
	AllowedTypes []string
}

type UserServiceImpl struct {
	userRepo  repositories.UserRepository
	store     storage.Storage
	processor *imageprocessor.Processor
	limits    UploadLimits
}

func NewUserService(
	userRepo repositories.UserRepository,
	store storage.Storage,
	processor *imageprocessor.Processor,
	limits UploadLimits,
) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo:  userRepo,
		store:     store,
		processor: processor,
		limits:    limits,
	}
}

// UpdateUserDetails обновляет переданные поля профиля.
// Смена email сбрасывает флаг верификации.
func (s *UserServiceImpl) UpdateUserDetails(ctx context.Context, userID uuid.UUID, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		newEmail := normalizeEmail(*req.Email)
		if newEmail != user.Email {
			if existing, err := s.userRepo.FindByEmail(ctx, newEmail); err == nil && existing.ID != userID {
				return nil, apperrors.ErrEmailAlreadyExists
			}
			user.Email = newEmail
			user.IsVerified = false
		}
	}
	if req.Mobile != nil {
		user.Mobile = *req.Mobile
	}
	if req.Password != nil {
		if err := auth.ValidatePassword(*req.Password); err != nil {
			return nil, err
		}
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		user.PasswordHash = hashed
		// смена пароля завершает активную сессию
		user.RefreshToken = ""
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		// параллельная регистрация могла занять email после проверки
		if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}
	return dto.NewUserResponse(user), nil
}

// UploadAvatar валидирует, обрабатывает и сохраняет аватар.
// Старый файл удаляется после успешной записи нового.
func (s *UserServiceImpl) UploadAvatar(ctx context.Context, userID uuid.UUID, file io.Reader, size int64, contentType string) (*dto.UserResponse, error) {
	if s.limits.MaxSize > 0 && size > s.limits.MaxSize {
		return nil, apperrors.ErrFileTooLarge
	}
	if !s.typeAllowed(contentType) {
		return nil, apperrors.ErrInvalidFileType
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	// Заявленному Content-Type не доверяем: декодер либо примет
	// файл как картинку, либо загрузка отклоняется
	processed, ext, outType, err := s.processor.ProcessAvatar(file)
	if err != nil {
		return nil, apperrors.ErrInvalidFileType
	}

	path := fmt.Sprintf("avatars/%s/%s.%s", userID, uuid.New().String(), ext)
	if err := s.store.Save(ctx, path, processed, outType); err != nil {
		return nil, apperrors.ErrUploadFailed(err)
	}

	url, err := s.store.GetURL(ctx, path)
	if err != nil {
		return nil, apperrors.ErrUploadFailed(err)
	}

	oldAvatar := user.Avatar
	user.Avatar = url
	if err := s.userRepo.Update(ctx, user); err != nil {
		// запись в БД не удалась, подчищаем свежезагруженный файл
		if delErr := s.store.Delete(ctx, path); delErr != nil {
			logger.CtxWithError(ctx, "failed to remove orphaned avatar", delErr, "path", path)
		}
		return nil, apperrors.InternalError(err)
	}

	s.deleteOldAvatar(ctx, oldAvatar)

	return dto.NewUserResponse(user), nil
}

func (s *UserServiceImpl) typeAllowed(contentType string) bool {
	if len(s.limits.AllowedTypes) == 0 {
		return true
	}
	for _, t := range s.limits.AllowedTypes {
		if strings.EqualFold(t, contentType) {
			return true
		}
	}
	return false
}

// deleteOldAvatar удаляет прежний файл аватара, если он наш.
// Ошибка удаления не фатальна для запроса.
func (s *UserServiceImpl) deleteOldAvatar(ctx context.Context, avatarURL string) {
	const prefix = "/files/"
	if avatarURL == "" || !strings.HasPrefix(avatarURL, prefix) {
		return
	}
	path := strings.TrimPrefix(avatarURL, prefix)
	if err := s.store.Delete(ctx, path); err != nil {
		logger.CtxWithError(ctx, "failed to delete old avatar", err, "path", path)
	}
}
