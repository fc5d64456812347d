package apperrors

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse - единый конверт ошибки для клиента:
// {success:false, message, errors}. Внутренние детали (stack, Err)
// наружу не уходят.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors"`
}

// GinErrorHandler - обработчик ошибок для Gin
type GinErrorHandler struct {
	Debug bool
}

// HandleGinError - основная логика обработки ошибок для Gin
func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		// Не AppError - оборачиваем в InternalError только здесь, на границе
		appErr = InternalError(err)
	}

	if !h.Debug && appErr.HTTPCode >= 500 {
		// В продакшене скрываем детали серверных ошибок
		appErr = New(appErr.Code, appErr.Domain, "Internal server error", appErr.HTTPCode)
	}

	errs := appErr.Details
	if errs == nil {
		errs = []string{}
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{
		Success: false,
		Message: appErr.Message,
		Errors:  errs,
	})
}

// HandleError - функция-помощник для хендлеров
func HandleError(c *gin.Context, err error) {
	handler := &GinErrorHandler{Debug: gin.Mode() != gin.ReleaseMode}
	handler.HandleGinError(c, err)
}

// AsAppError - пытается преобразовать error в *AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
