package apperrors

import (
	"net/http"
)

/*
Фабрики и предопределенные переменные для доменных ошибок
модуля учетных записей.
*/

// ErrNotFound - фабрика для ошибки "не найдено" (404).
// Используется, когда ошибка репозитория (gorm.ErrRecordNotFound)
// должна быть преобразована в AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrExternalService - ошибка внешнего сервиса (email, хранилище файлов)
func ErrExternalService(err error, domain, message string) *AppError {
	return Wrap(err, CodeExternalServiceError, domain, message, http.StatusBadGateway)
}

// --- Auth & User Status ---

// ErrWeakPassword - пароль слишком слабый
var ErrWeakPassword = New(
	CodeValidationFailed,
	"validation",
	"Password is too weak. Minimum 8 characters required.",
	http.StatusBadRequest,
)

// ErrEmailAlreadyExists - email уже используется
var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"User with this email already exists",
	http.StatusConflict,
)

// ErrInvalidCredentials - неверный email или пароль
var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

// ErrUserNotFound - пользователь не найден
var ErrUserNotFound = New(
	CodeNotFound,
	"auth",
	"User not found",
	http.StatusNotFound,
)

// ErrAccountNotActive - аккаунт неактивен или заблокирован,
// вход запрещен независимо от пароля
var ErrAccountNotActive = New(
	CodeForbidden,
	"auth",
	"Account is not active. Please contact admin.",
	http.StatusForbidden,
)

// ErrInvalidToken - токен невалиден (подпись, формат, субъект)
var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

// ErrInvalidVerificationToken - ссылка подтверждения почты битая
// или просрочена. Это не отказ в авторизации, а негодный ввод,
// поэтому 400, а не 401.
var ErrInvalidVerificationToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired verification link",
	http.StatusBadRequest,
)

// ErrRefreshTokenMismatch - refresh-токен не совпадает с сохраненным.
// Признак устаревшего или повторно использованного токена после ротации.
var ErrRefreshTokenMismatch = New(
	CodeInvalidToken,
	"auth",
	"Refresh token does not match",
	http.StatusUnauthorized,
)

// --- Forgot password / OTP ---

// ErrInvalidOTP - OTP не совпадает или отсутствует
var ErrInvalidOTP = New(
	CodeInvalidOTP,
	"auth",
	"Invalid OTP",
	http.StatusBadRequest,
)

// ErrOTPExpired - срок действия OTP истек
var ErrOTPExpired = New(
	CodeOTPExpired,
	"auth",
	"OTP has expired",
	http.StatusBadRequest,
)

// --- Uploads & Files ---

// ErrFileTooLarge - файл превышает максимальный размер
var ErrFileTooLarge = New(
	CodeFileTooLarge,
	"validation",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

// ErrInvalidFileType - MIME-тип файла не разрешен
var ErrInvalidFileType = New(
	CodeInvalidFileType,
	"validation",
	"The provided file type is not allowed",
	http.StatusUnsupportedMediaType,
)

// ErrUploadFailed - фабрика для ошибок внешнего хранилища (500)
func ErrUploadFailed(err error) *AppError {
	return Wrap(err, CodeUploadFailed, "storage", "Avatar upload failed", http.StatusInternalServerError)
}
