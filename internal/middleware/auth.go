package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"binkeyit_backend/internal/auth"
	"binkeyit_backend/internal/logger"
	"binkeyit_backend/internal/models"
	"binkeyit_backend/internal/repositories"
	"binkeyit_backend/pkg/contextkeys"
)

// UserResolver отдает пользователя по субъекту токена.
// Реализуется repositories.UserRepository.
type UserResolver interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthMiddleware - middleware проверки access-токена.
// Сначала смотрим cookie (браузерные клиенты), затем
// заголовок Authorization (мобильные и API-клиенты).
// Подпись токена - не пропуск: субъект должен существовать
// и быть активным на момент запроса, иначе удаленный или
// заблокированный аккаунт жил бы до истечения access-токена.
func AuthMiddleware(tokens *auth.TokenManager, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			abortUnauthorized(c, "Authorization token missing")
			return
		}

		claims, err := tokens.Parse(auth.TokenAccess, tokenStr)
		if err != nil {
			if err == auth.ErrTokenExpired {
				abortUnauthorized(c, "Token has expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				abortUnauthorized(c, "Invalid token")
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Internal server error",
				"errors":  []string{},
			})
			return
		}
		if user.Status != models.StatusActive {
			abortUnauthorized(c, "Account is not active")
			return
		}

		c.Set(string(contextkeys.UserIDKey), user.ID)
		c.Set(string(contextkeys.RoleKey), user.Role)
		c.Set(string(contextkeys.UserKey), user)

		ctx := logger.WithUserID(c.Request.Context(), user.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
		"errors":  []string{},
	})
}

// RequireRoles - middleware для проверки ролей
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		roleVal, exists := c.Get(string(contextkeys.RoleKey))
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Access denied: no role",
				"errors":  []string{},
			})
			return
		}

		role, ok := roleVal.(models.UserRole)
		if !ok {
			roleStr, isString := roleVal.(string)
			if !isString {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"success": false,
					"message": "Access denied: invalid role type",
					"errors":  []string{},
				})
				return
			}
			role = models.UserRole(roleStr)
		}

		if !roleSet[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Access denied: insufficient permissions",
				"errors":  []string{},
			})
			return
		}

		c.Next()
	}
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) uuid.UUID {
	userID, exists := c.Get(string(contextkeys.UserIDKey))
	if !exists {
		return uuid.Nil
	}

	id, ok := userID.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}

	return id
}
