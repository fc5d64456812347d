package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"binkeyit_backend/internal/services"
	"binkeyit_backend/internal/services/dto"
	"binkeyit_backend/pkg/apperrors"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
	maxFileSize int64
}

func NewUserHandler(base *BaseHandler, userService services.UserService, maxFileSize int64) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
		maxFileSize: maxFileSize,
	}
}

// GetProfile - GET /api/v1/users/profile.
// Отдает запись, которую AuthMiddleware уже нашел по токену,
// без повторного похода в базу.
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, ok := h.GetAuthUser(c)
	if !ok {
		return
	}

	h.Respond(c, http.StatusOK, "User profile", dto.NewUserResponse(user))
}

// UpdateUser - PUT /api/v1/users/update.
// Принимает JSON либо multipart с опциональным файлом аватара.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.updateUserMultipart(c, userID)
		return
	}

	var req dto.UpdateUserRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUserDetails(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Profile updated", user)
}

func (h *UserHandler) updateUserMultipart(c *gin.Context, userID uuid.UUID) {
	var req dto.UpdateUserRequest
	formField := func(name string) *string {
		if v, ok := c.GetPostForm(name); ok {
			return &v
		}
		return nil
	}
	req.Name = formField("name")
	req.Email = formField("email")
	req.Mobile = formField("mobile")
	req.Password = formField("password")

	if !h.validate(c, &req) {
		return
	}

	user, err := h.userService.UpdateUserDetails(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	// аватар опционален
	if fileHeader, err := c.FormFile("avatar"); err == nil {
		if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
			apperrors.HandleError(c, apperrors.ErrFileTooLarge)
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			apperrors.HandleError(c, apperrors.InternalError(err))
			return
		}
		defer file.Close()

		user, err = h.userService.UploadAvatar(
			c.Request.Context(),
			userID,
			file,
			fileHeader.Size,
			fileHeader.Header.Get("Content-Type"),
		)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
	}

	h.Respond(c, http.StatusOK, "Profile updated", user)
}

// UploadAvatar - POST /api/v1/users/avatar (multipart, поле "avatar")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing avatar file"))
		return
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		apperrors.HandleError(c, apperrors.ErrFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}
	defer file.Close()

	user, err := h.userService.UploadAvatar(
		c.Request.Context(),
		userID,
		file,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Respond(c, http.StatusOK, "Avatar uploaded", user)
}
