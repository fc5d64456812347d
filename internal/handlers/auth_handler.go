package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"binkeyit_backend/internal/services"
	"binkeyit_backend/internal/services/dto"
	"binkeyit_backend/pkg/apperrors"
)

// CookieConfig - параметры auth-cookie
type CookieConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secure     bool
}

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
	cookies     CookieConfig
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
		cookies:     cookies,
	}
}

// Register - POST /api/v1/users/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusCreated,
		"Registration successful. Please check your email to verify your account.", user)
}

// VerifyEmail - GET /api/v1/users/verify-email?token=...
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing verification token"))
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), token); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Email verified successfully", nil)
}

// Login - POST /api/v1/users/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.setAuthCookies(c, resp.Tokens.AccessToken, resp.Tokens.RefreshToken)
	h.Respond(c, http.StatusOK, "Login successful", resp)
}

// Logout - POST /api/v1/users/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.clearAuthCookies(c)
	h.Respond(c, http.StatusOK, "Logout successful", nil)
}

// RefreshToken - POST /api/v1/users/refresh-token.
// Токен берется из cookie, тело запроса - запасной вариант
// для клиентов без cookie.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie("refreshToken")
	if err != nil || refreshToken == "" {
		var req dto.RefreshRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Missing refresh token"))
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.setAuthCookies(c, pair.AccessToken, pair.RefreshToken)
	h.Respond(c, http.StatusOK, "Token refreshed", pair)
}

// ChangePassword - PATCH /api/v1/users/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.clearAuthCookies(c)
	h.Respond(c, http.StatusOK, "Password changed successfully. Please login again.", nil)
}

// ForgotPassword - POST /api/v1/users/forgot-password/send-otp
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "OTP sent to your email", nil)
}

// VerifyForgotPasswordOTP - POST /api/v1/users/forgot-password/verify-otp
func (h *AuthHandler) VerifyForgotPasswordOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.authService.VerifyForgotPasswordOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "OTP verified", nil)
}

// ResetPassword - POST /api/v1/users/forgot-password/reset
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Password reset successfully. Please login.", nil)
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("accessToken", accessToken, int(h.cookies.AccessTTL.Seconds()), "/", "", h.cookies.Secure, true)
	c.SetCookie("refreshToken", refreshToken, int(h.cookies.RefreshTTL.Seconds()), "/", "", h.cookies.Secure, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("accessToken", "", -1, "/", "", h.cookies.Secure, true)
	c.SetCookie("refreshToken", "", -1, "/", "", h.cookies.Secure, true)
}
