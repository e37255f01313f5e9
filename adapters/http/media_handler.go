package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mediaUC "github.com/khoahotran/portfolio-site/internal/application/usecase/media"
	"github.com/khoahotran/portfolio-site/pkg/apperror"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

type MediaHandler struct {
	uploadMediaUC *mediaUC.UploadMediaUseCase
	logger        logger.Logger
}

func NewMediaHandler(uploadUC *mediaUC.UploadMediaUseCase, log logger.Logger) *MediaHandler {
	return &MediaHandler{
		uploadMediaUC: uploadUC,
		logger:        log,
	}
}

func (h *MediaHandler) UploadMedia(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			c.Error(apperror.NewTooLarge("upload exceeds the configured limit"))
			return
		}
		c.Error(apperror.NewInvalidInput("'file' is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("failed to open file", err))
		return
	}
	defer file.Close()

	input := mediaUC.UploadMediaInput{
		File:        file,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Folder:      c.PostForm("folder"),
	}
	out, err := h.uploadMediaUC.Execute(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, MediaResponse{
		Success:      true,
		URL:          out.URL,
		ThumbnailURL: out.ThumbnailURL,
		PublicID:     out.PublicID,
	})
}
