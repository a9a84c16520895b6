package auth

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"gallery/internal/domain"
	"gallery/internal/domain/upload"
	"gallery/internal/middleware"
	"gallery/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service      *Service
	maxBodyBytes int64
}

func NewHandler(service *Service, maxAvatarSize int64) *Handler {
	return &Handler{service: service, maxBodyBytes: maxAvatarSize + 1<<20}
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

func (h *Handler) GetMe(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	user, err := h.service.GetMe(c.Request.Context(), actor.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateProfile accepts multipart with an optional "avatar" file, or JSON.
func (h *Handler) UpdateProfile(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var (
		req    UpdateProfileRequest
		avatar *multipart.FileHeader
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
		form, err := c.MultipartForm()
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(c, err)
				return
			}
			response.CustomError(c, http.StatusBadRequest, "INVALID_FORM", "Failed to parse form")
			return
		}
		if v, ok := form.Value["username"]; ok && len(v) > 0 {
			req.Username = lo.ToPtr(v[0])
		}
		if v, ok := form.Value["bio"]; ok && len(v) > 0 {
			req.Bio = lo.ToPtr(v[0])
		}
		if files := form.File["avatar"]; len(files) > 0 {
			avatar = files[0]
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), actor.UserID, req, avatar)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), actor.UserID, req); err != nil {
		writeError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Password updated")
}

func writeError(c *gin.Context, err error) {
	var (
		validationErr *domain.ValidationError
		maxErr        *http.MaxBytesError
	)
	switch {
	case errors.As(err, &validationErr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", validationErr.Fields)
	case errors.Is(err, ErrEmailAlreadyExists):
		response.CustomError(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
	case errors.Is(err, ErrUsernameTaken):
		response.CustomError(c, http.StatusConflict, "USERNAME_TAKEN", "This username is already taken")
	case errors.Is(err, ErrInvalidCredentials):
		response.CustomError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
	case errors.Is(err, ErrWrongPassword):
		response.CustomError(c, http.StatusBadRequest, "WRONG_PASSWORD", "Current password is incorrect")
	case errors.Is(err, ErrUserNotFound):
		response.CustomError(c, http.StatusNotFound, "NOT_FOUND", "User not found")
	case errors.Is(err, upload.ErrEmptyFile):
		response.CustomError(c, http.StatusBadRequest, "EMPTY_FILE", "Uploaded file is empty")
	case errors.Is(err, upload.ErrUnsupportedMediaType):
		response.CustomError(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "File type is not allowed")
	case errors.Is(err, upload.ErrPayloadTooLarge), errors.As(err, &maxErr):
		response.CustomError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "File exceeds the maximum allowed size")
	default:
		_ = c.Error(err)
		response.CustomError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Internal storage error")
	}
}
