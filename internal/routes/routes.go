package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"binkeyit_backend/internal/auth"
	"binkeyit_backend/internal/handlers"
	"binkeyit_backend/internal/middleware"
	"binkeyit_backend/internal/repositories"
)

// Handlers - все хендлеры приложения
type Handlers struct {
	Auth *handlers.AuthHandler
	User *handlers.UserHandler
	File *handlers.FileHandler
}

// RegisterRoutes регистрирует все маршруты приложения
func RegisterRoutes(r *gin.Engine, h *Handlers, tokens *auth.TokenManager, userRepo repositories.UserRepository) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// раздача локально хранимых файлов (аватары)
	r.GET("/files/*path", h.File.ServeFile)

	api := r.Group("/api/v1")
	users := api.Group("/users")
	{
		users.POST("/register", h.Auth.Register)
		users.GET("/verify-email", h.Auth.VerifyEmail)
		users.POST("/login", h.Auth.Login)
		users.POST("/refresh-token", h.Auth.RefreshToken)

		forgot := users.Group("/forgot-password")
		{
			forgot.POST("/send-otp", h.Auth.ForgotPassword)
			forgot.POST("/verify-otp", h.Auth.VerifyForgotPasswordOTP)
			forgot.POST("/reset", h.Auth.ResetPassword)
		}

		authorized := users.Group("")
		authorized.Use(middleware.AuthMiddleware(tokens, userRepo))
		{
			authorized.POST("/logout", h.Auth.Logout)
			authorized.PATCH("/change-password", h.Auth.ChangePassword)
			authorized.GET("/profile", h.User.GetProfile)
			authorized.PUT("/update", h.User.UpdateUser)
			authorized.POST("/avatar", h.User.UploadAvatar)
		}
	}
}
