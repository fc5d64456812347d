package handlers

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"binkeyit_backend/internal/storage"
	"binkeyit_backend/pkg/apperrors"
)

// FileHandler раздает файлы из хранилища (аватары при локальном бекенде)
type FileHandler struct {
	*BaseHandler
	store storage.Storage
}

func NewFileHandler(base *BaseHandler, store storage.Storage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		store:       store,
	}
}

// ServeFile - GET /files/*path
func (h *FileHandler) ServeFile(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	if path == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing file path"))
		return
	}

	reader, err := h.store.Get(c.Request.Context(), path)
	if err != nil {
		if apperrors.Is(err, storage.ErrNotFound) {
			apperrors.HandleError(c, apperrors.NewNotFoundError("File not found"))
			return
		}
		h.HandleServiceError(c, err)
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		// клиент отвалился посреди ответа, статус уже отправлен
		return
	}
}
