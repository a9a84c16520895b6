package gallery

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"gallery/internal/domain"
	"gallery/internal/domain/upload"
	"gallery/internal/middleware"
	"gallery/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// formOverhead is the room left for text fields and multipart framing on top
// of the file size limit.
const formOverhead = 1 << 20

type Handler struct {
	service      *Service
	maxBodyBytes int64
}

func NewHandler(service *Service, maxFileSize int64) *Handler {
	return &Handler{service: service, maxBodyBytes: maxFileSize + formOverhead}
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			writeError(c, ErrFileRequired)
			return
		}
		writeFormError(c, err)
		return
	}

	req, fields := createRequestFromForm(form.Value)
	if fields != nil {
		writeError(c, domain.NewValidationError(fields))
		return
	}

	img, err := h.service.Create(c.Request.Context(), actor, req, formFile(form))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, img)
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	q, fields := listQueryFrom(c)
	if fields != nil {
		writeError(c, domain.NewValidationError(fields))
		return
	}

	result, err := h.service.List(c.Request.Context(), actor, q)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := imageID(c)
	if !ok {
		return
	}

	img, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, img)
}

// Update accepts multipart (optionally with a new file) or a JSON body.
func (h *Handler) Update(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := imageID(c)
	if !ok {
		return
	}

	var (
		req  UpdateImageRequest
		file *multipart.FileHeader
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
		form, err := c.MultipartForm()
		if err != nil {
			writeFormError(c, err)
			return
		}
		var fields map[string]string
		if req, fields = updateRequestFromForm(form.Value); fields != nil {
			writeError(c, domain.NewValidationError(fields))
			return
		}
		file = formFile(form)
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	img, err := h.service.Update(c.Request.Context(), actor, id, req, file)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, img)
}

func (h *Handler) Delete(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id, ok := imageID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Image deleted")
}

func imageID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid image ID")
		return 0, false
	}
	return id, true
}

func listQueryFrom(c *gin.Context) (ListQuery, map[string]string) {
	var q ListQuery
	fields := map[string]string{}

	parseInt := func(key string) int64 {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			return 0
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			fields[key] = "numeric"
			return 0
		}
		return n
	}

	q.Page = int(parseInt("page"))
	q.Limit = int(parseInt("limit"))
	q.UserID = parseInt("user_id")
	q.Category = domain.Category(strings.TrimSpace(c.Query("category")))
	if raw := c.Query("tags"); raw != "" {
		q.Tags = strings.Split(raw, ",")
	}

	if len(fields) == 0 {
		return q, nil
	}
	return q, fields
}

func writeFormError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(c, err)
		return
	}
	response.CustomError(c, http.StatusBadRequest, "INVALID_FORM", "Failed to parse form")
}

func writeError(c *gin.Context, err error) {
	var (
		validationErr *domain.ValidationError
		maxErr        *http.MaxBytesError
	)
	switch {
	case errors.As(err, &validationErr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", validationErr.Fields)
	case errors.Is(err, ErrFileRequired):
		response.CustomError(c, http.StatusBadRequest, "FILE_REQUIRED", "An image file is required")
	case errors.Is(err, upload.ErrEmptyFile):
		response.CustomError(c, http.StatusBadRequest, "EMPTY_FILE", "Uploaded file is empty")
	case errors.Is(err, upload.ErrUnsupportedMediaType):
		response.CustomError(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "File type is not allowed")
	case errors.Is(err, upload.ErrPayloadTooLarge), errors.As(err, &maxErr):
		response.CustomError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "File exceeds the maximum allowed size")
	case errors.Is(err, ErrImageNotFound):
		response.CustomError(c, http.StatusNotFound, "NOT_FOUND", "Image not found")
	case errors.Is(err, domain.ErrForbidden):
		response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this image")
	case errors.Is(err, upload.ErrAssetProcessing):
		response.CustomError(c, http.StatusUnprocessableEntity, "ASSET_PROCESSING_FAILED", "The file could not be processed as an image")
	default:
		_ = c.Error(err)
		response.CustomError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Internal storage error")
	}
}
