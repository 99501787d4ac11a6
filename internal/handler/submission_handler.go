package handler

import (
	"errors"
	"net/http"
	"strconv"

	"submission-disk/internal/services"
	"submission-disk/internal/transport/httpdto"
	apperrors "submission-disk/pkg/errors"

	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	service *services.SubmissionService
}

func NewSubmissionHandler(service *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// Create accepts a multipart upload under the "file" field with optional
// description and submittedBy fields.
func (h *SubmissionHandler) Create(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("missing file field", "INVALID_REQUEST"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("unreadable upload", "INVALID_REQUEST"))
		return
	}
	defer file.Close()

	sub, err := h.service.Submit(c.Request.Context(), services.SubmitInput{
		File:         file,
		Size:         fileHeader.Size,
		OriginalName: fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Description:  c.PostForm("description"),
		SubmittedBy:  c.PostForm("submittedBy"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewSubmissionResponse(sub)))
}

func (h *SubmissionHandler) GetByID(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid submission id", "INVALID_REQUEST"))
		return
	}
	sub, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSubmissionResponse(sub)))
}

// List returns all submissions, optionally filtered by ?status= or
// ?submittedBy=. Status takes precedence when both are given.
func (h *SubmissionHandler) List(c *gin.Context) {
	subs, err := h.service.List(c.Request.Context(), c.Query("status"), c.Query("submittedBy"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSubmissionListResponse(subs)))
}

// UpdateStatus is the admin status override: PATCH /:id/status?status=NEW.
func (h *SubmissionHandler) UpdateStatus(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid submission id", "INVALID_REQUEST"))
		return
	}
	status := c.Query("status")
	if status == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("missing status parameter", "INVALID_REQUEST"))
		return
	}
	sub, err := h.service.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		// Mutations on a nonexistent id are a bad request, not a 404.
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("submission not found", "INVALID_REQUEST"))
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSubmissionResponse(sub)))
}

func (h *SubmissionHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid submission id", "INVALID_REQUEST"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("submission not found", "INVALID_REQUEST"))
			return
		}
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("submission not found", "NOT_FOUND"))
	case errors.Is(err, apperrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
	case errors.Is(err, apperrors.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_TRANSITION"))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal error", "INTERNAL_ERROR"))
	}
}
