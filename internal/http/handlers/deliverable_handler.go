package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/taskbounty-backend/internal/dto"
	"github.com/ignatzorin/taskbounty-backend/internal/http/handlers/common"
	"github.com/ignatzorin/taskbounty-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskbounty-backend/internal/storage"
)

// DeliverableHandler загрузка результатов работы. Полученная ссылка
// передаётся в submit-work как submission_ref.
type DeliverableHandler struct {
	storage *storage.DeliverableStorage
}

func NewDeliverableHandler(storage *storage.DeliverableStorage) *DeliverableHandler {
	return &DeliverableHandler{storage: storage}
}

// Upload POST /api/deliverables (multipart, поле file)
func (h *DeliverableHandler) Upload(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondError(c, apperror.New(apperror.ErrCodeBadRequest, "файл обязателен"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, apperror.New(apperror.ErrCodeBadRequest, "не удалось прочитать файл"))
		return
	}
	defer src.Close()

	saved, err := h.storage.Save(c.Request.Context(), userID, src)
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		common.RespondError(c, apperror.New(apperror.ErrCodeValidation, "неподдерживаемый тип файла: разрешены изображения, документы и архивы"))
		return
	case errors.Is(err, storage.ErrTooLarge):
		common.RespondError(c, apperror.New(apperror.ErrCodeValidation, "размер файла превышает лимит"))
		return
	case err != nil:
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.UploadResponse{
		SubmissionRef: saved.Ref,
		ContentType:   saved.ContentType,
		Size:          saved.Size,
	})
}
