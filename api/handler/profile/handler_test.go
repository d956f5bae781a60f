package profile

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cohortlab/mba-portal/api/common"
	"github.com/cohortlab/mba-portal/database/dbtest"
	"github.com/cohortlab/mba-portal/database/models"
	"github.com/cohortlab/mba-portal/database/repo/profiles"
	"github.com/cohortlab/mba-portal/internal/auth"
	"github.com/cohortlab/mba-portal/internal/avatar"
	"github.com/cohortlab/mba-portal/internal/resume"
	"github.com/cohortlab/mba-portal/internal/resume/resumetest"
	"github.com/cohortlab/mba-portal/storage/storagetest"
)

const userID = "4c2d9a10-0000-4000-8000-000000000001"

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T, principal *auth.Principal) (*gin.Engine, *gorm.DB, *storagetest.Fake) {
	t.Helper()

	db := dbtest.Open(t)
	repo := profiles.NewRepository(db)
	files := storagetest.New()
	h := NewHandler(repo, avatar.NewService(repo, files, 1<<20, 64), resume.NewService(repo, files, 1<<20))

	as := func(fn func(*gin.Context, *auth.Principal) error) gin.HandlerFunc {
		return common.Wrap(func(c *gin.Context) error { return fn(c, principal) })
	}

	r := gin.New()
	r.POST("/api/upload-profile-picture", as(h.UploadPicture))
	r.POST("/api/upload-resume", as(h.UploadResume))
	r.GET("/api/profile", as(h.Me))
	r.GET("/api/members", as(h.Directory))
	return r, db, files
}

func seedProfile(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&models.Profile{ID: userID, Name: "Sam Lee", Email: "sam@example.edu"}).Error)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func post(t *testing.T, r http.Handler, path, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if data != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="file"; filename="upload"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestUploadPicture(t *testing.T) {
	r, db, files := setup(t, &auth.Principal{UserID: userID})
	seedProfile(t, db)

	w := post(t, r, "/api/upload-profile-picture", "image/png", pngBytes(t, 128, 96))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	url, _ := decode(t, w)["url"].(string)
	assert.True(t, strings.HasPrefix(url, "https://cdn.test/"))
	assert.Equal(t, 1, files.Objects())

	var stored models.Profile
	require.NoError(t, db.First(&stored, "id = ?", userID).Error)
	assert.Equal(t, url, stored.ProfilePicture)
}

func TestUploadPicture_Errors(t *testing.T) {
	r, db, files := setup(t, &auth.Principal{UserID: userID})

	w := post(t, r, "/api/upload-profile-picture", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file provided", decode(t, w)["error"])

	w = post(t, r, "/api/upload-profile-picture", "text/plain", []byte("hello"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File must be an image", decode(t, w)["error"])

	w = post(t, r, "/api/upload-profile-picture", "image/png", []byte("not really a png"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File must be an image", decode(t, w)["error"])

	w = post(t, r, "/api/upload-profile-picture", "image/png", bytes.Repeat([]byte{0}, (1<<20)+1))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File size must be less than 1MB", decode(t, w)["error"])
	assert.Equal(t, 0, files.Saves())

	// 资料不存在时更新失败，已上传的对象被删除
	w = post(t, r, "/api/upload-profile-picture", "image/png", pngBytes(t, 8, 8))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to update profile", decode(t, w)["error"])
	assert.Equal(t, 0, files.Objects())

	seedProfile(t, db)
	files.SaveErr = assert.AnError
	w = post(t, r, "/api/upload-profile-picture", "image/png", pngBytes(t, 8, 8))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to upload image", decode(t, w)["error"])
}

func TestUploadResume(t *testing.T) {
	r, db, files := setup(t, &auth.Principal{UserID: userID})
	seedProfile(t, db)

	w := post(t, r, "/api/upload-resume", "application/pdf", resumetest.MinimalPDF("Sam Lee", "Consultant"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	url, _ := decode(t, w)["url"].(string)
	var stored models.Profile
	require.NoError(t, db.First(&stored, "id = ?", userID).Error)
	assert.Equal(t, url, stored.ResumeURL)
	assert.Equal(t, 1, files.Objects())
}

func TestUploadResume_Errors(t *testing.T) {
	r, _, files := setup(t, &auth.Principal{UserID: userID})

	w := post(t, r, "/api/upload-resume", "image/png", []byte("png"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File must be a PDF", decode(t, w)["error"])

	w = post(t, r, "/api/upload-resume", "application/pdf", []byte("%PDF-1.4 truncated"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File must be a PDF", decode(t, w)["error"])

	w = post(t, r, "/api/upload-resume", "application/pdf", resumetest.MinimalPDF("Orphan"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to update profile", decode(t, w)["error"])
	assert.Equal(t, 0, files.Objects())
}

func TestMeAndDirectory(t *testing.T) {
	r, db, _ := setup(t, &auth.Principal{UserID: userID})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Profile not found", decode(t, w)["error"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/members", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"members":[]}`, w.Body.String())

	seedProfile(t, db)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode(t, w)["profile"].(map[string]interface{})
	assert.Equal(t, "Sam Lee", profile["name"])
}
