package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gallery/internal/config"
	"gallery/internal/database"
	"gallery/internal/domain"
	"gallery/internal/domain/auth"
	"gallery/internal/domain/upload"
	"gallery/internal/repository"
)

type E2ETestSuite struct {
	srv    *server
	db     *gorm.DB
	layout upload.Layout
}

type TestResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type imageBody struct {
	ID           int64    `json:"id"`
	URL          string   `json:"url"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Tags         []string `json:"tags"`
	IsPublic     bool     `json:"is_public"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AppEnv:     "test",
		JWTSecret:  "test_secret_key_32_characters_min",
		JWTTTL:     time.Hour,
		BcryptCost: 4,
		Upload: config.UploadConfig{
			Dir:              filepath.Join(t.TempDir(), "uploads"),
			AllowedFileTypes: []string{"image/jpeg", "image/png"},
			MaxFileSize:      5 << 20,
			ThumbnailSize:    upload.DefaultThumbnailSize,
		},
		CORSOrigins: []string{"*"},
	}

	srv, err := newServer(cfg, db)
	require.NoError(t, err)
	return &E2ETestSuite{srv: srv, db: db, layout: upload.NewLayout(cfg.Upload.Dir)}
}

func (s *E2ETestSuite) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.srv.router.ServeHTTP(w, req)
	return w
}

func (s *E2ETestSuite) makeRequest(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.serve(req, token)
}

func (s *E2ETestSuite) uploadImage(t *testing.T, token string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	img := imaging.New(800, 600, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	var data bytes.Buffer
	require.NoError(t, imaging.Encode(&data, img, imaging.JPEG))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="red.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.serve(req, token)
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) *TestResponse {
	t.Helper()
	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return &resp
}

func (s *E2ETestSuite) register(t *testing.T, username string) string {
	t.Helper()
	w := s.makeRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(parseResponse(t, w).Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func (s *E2ETestSuite) login(t *testing.T, email, password string) string {
	t.Helper()
	w := s.makeRequest(t, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(parseResponse(t, w).Data, &data))
	return data.Token
}

func (s *E2ETestSuite) seedAdmin(t *testing.T) string {
	t.Helper()
	hash, err := auth.HashPassword("adminpass", 4)
	require.NoError(t, err)
	admin := &domain.User{Username: "root", Email: "root@example.com", PasswordHash: hash, Role: domain.RoleAdmin}
	require.NoError(t, repository.NewUserRepository(s.db).Create(context.Background(), admin))
	return s.login(t, "root@example.com", "adminpass")
}

func TestE2E_HealthAndUnknownRoute(t *testing.T) {
	s := setupTestSuite(t)

	w := s.makeRequest(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, parseResponse(t, w).Success)

	w = s.makeRequest(t, http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", parseResponse(t, w).Error.Code)
}

func TestE2E_GalleryFlow(t *testing.T) {
	s := setupTestSuite(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	t.Run("anonymous upload is rejected", func(t *testing.T) {
		w := s.uploadImage(t, "", map[string]string{"title": "x"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	w := s.uploadImage(t, alice, map[string]string{"title": "Sunset", "tags": "Sky, sea", "is_public": "false"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var img imageBody
	require.NoError(t, json.Unmarshal(parseResponse(t, w).Data, &img))
	assert.Equal(t, []string{"sky", "sea"}, img.Tags)
	assert.False(t, img.IsPublic)

	t.Run("files are served under the public prefix", func(t *testing.T) {
		for _, url := range []string{img.URL, img.ThumbnailURL} {
			w := s.makeRequest(t, http.MethodGet, url, nil, "")
			assert.Equal(t, http.StatusOK, w.Code, url)
		}
	})

	t.Run("private image is hidden from others", func(t *testing.T) {
		path := fmt.Sprintf("/api/images/%d", img.ID)
		assert.Equal(t, http.StatusOK, s.makeRequest(t, http.MethodGet, path, nil, alice).Code)
		assert.Equal(t, http.StatusForbidden, s.makeRequest(t, http.MethodGet, path, nil, bob).Code)

		w := s.makeRequest(t, http.MethodGet, "/api/images", nil, bob)
		require.Equal(t, http.StatusOK, w.Code)
		var list struct {
			Images []imageBody `json:"images"`
		}
		require.NoError(t, json.Unmarshal(parseResponse(t, w).Data, &list))
		assert.Empty(t, list.Images)
	})

	t.Run("sweep keeps referenced files and removes orphans", func(t *testing.T) {
		orphan := filepath.Join(s.layout.ImagesDir, "orphan.jpg")
		require.NoError(t, os.WriteFile(orphan, []byte("stale"), 0o644))

		report, err := s.srv.sweeper.Sweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.RemovedOriginals)
		assert.NoFileExists(t, orphan)
		assert.FileExists(t, filepath.Join(s.layout.ImagesDir, filepath.Base(img.URL)))
	})

	t.Run("only the owner deletes", func(t *testing.T) {
		path := fmt.Sprintf("/api/images/%d", img.ID)
		assert.Equal(t, http.StatusForbidden, s.makeRequest(t, http.MethodDelete, path, nil, bob).Code)

		w := s.makeRequest(t, http.MethodDelete, path, nil, alice)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NoFileExists(t, filepath.Join(s.layout.ImagesDir, filepath.Base(img.URL)))
		assert.NoFileExists(t, filepath.Join(s.layout.ThumbnailsDir, filepath.Base(img.ThumbnailURL)))
	})
}

func TestE2E_AdminSweep(t *testing.T) {
	s := setupTestSuite(t)
	user := s.register(t, "carol")
	admin := s.seedAdmin(t)

	orphan := filepath.Join(s.layout.ImagesDir, "left-behind.png")
	require.NoError(t, os.WriteFile(orphan, []byte("stale"), 0o644))

	w := s.makeRequest(t, http.MethodPost, "/api/admin/sweep", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.FileExists(t, orphan)

	w = s.makeRequest(t, http.MethodPost, "/api/admin/sweep", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report upload.SweepReport
	require.NoError(t, json.Unmarshal(parseResponse(t, w).Data, &report))
	assert.Equal(t, upload.SweepReport{Scanned: 1, RemovedOriginals: 1}, report)
	assert.NoFileExists(t, orphan)
}
