package cohort

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cohortlab/mba-portal/api/common"
	"github.com/cohortlab/mba-portal/cache/memory"
	"github.com/cohortlab/mba-portal/database/dbtest"
	"github.com/cohortlab/mba-portal/database/models"
	"github.com/cohortlab/mba-portal/database/repo/content"
	statsRepo "github.com/cohortlab/mba-portal/database/repo/dashboard"
	"github.com/cohortlab/mba-portal/internal/auth"
	"github.com/cohortlab/mba-portal/internal/dashboard"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubInvalidator struct {
	calls int
	err   error
}

func (s *stubInvalidator) InvalidateContext(ctx context.Context) error {
	s.calls++
	return s.err
}

func setup(t *testing.T, chat ContextInvalidator) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := dbtest.Open(t)
	cacheProvider, err := memory.NewMemory(memory.DefaultConfig())
	require.NoError(t, err)

	svc := dashboard.NewService(statsRepo.NewRepository(db), content.NewRepository(db), cacheProvider, time.Minute)
	h := NewHandler(svc, chat)

	admin := &auth.Principal{UserID: "admin", IsAdmin: true}
	as := func(fn func(*gin.Context, *auth.Principal) error) gin.HandlerFunc {
		return common.Wrap(func(c *gin.Context) error { return fn(c, admin) })
	}

	r := gin.New()
	r.GET("/api/dashboard", as(h.GetStats))
	r.GET("/api/events", as(h.ListEvents))
	r.GET("/api/announcements", as(h.ListAnnouncements))
	r.POST("/api/admin/cache/refresh", as(h.RefreshCaches))
	return r, db
}

func get(t *testing.T, r http.Handler, method, path string) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestGetStats(t *testing.T) {
	r, db := setup(t, nil)
	require.NoError(t, db.Create(&models.Profile{ID: "p1", Name: "Sam", Email: "sam@example.edu"}).Error)
	require.NoError(t, db.Create(&models.Event{Title: "Mixer", EventDate: time.Now().Add(48 * time.Hour)}).Error)

	code, body := get(t, r, http.MethodGet, "/api/dashboard")
	require.Equal(t, http.StatusOK, code)

	stats := body["dashboard"].(map[string]interface{})
	require.Contains(t, stats, "counts")
	assert.Contains(t, stats, "trend")
}

func TestListEvents(t *testing.T) {
	r, db := setup(t, nil)
	now := time.Now()
	require.NoError(t, db.Create(&models.Event{Title: "Past", EventDate: now.Add(-72 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.Event{Title: "Soon", EventDate: now.Add(24 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.Event{Title: "Later", EventDate: now.Add(96 * time.Hour)}).Error)

	code, body := get(t, r, http.MethodGet, "/api/events")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["events"], 3)

	code, body = get(t, r, http.MethodGet, "/api/events?upcoming=true&limit=1")
	require.Equal(t, http.StatusOK, code)
	events := body["events"].([]interface{})
	require.Len(t, events, 1)
	assert.Equal(t, "Soon", events[0].(map[string]interface{})["title"])
}

func TestListAnnouncements_Empty(t *testing.T) {
	r, _ := setup(t, nil)

	code, body := get(t, r, http.MethodGet, "/api/announcements")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{}, body["announcements"])
}

func TestRefreshCaches(t *testing.T) {
	chat := &stubInvalidator{}
	r, _ := setup(t, chat)

	code, body := get(t, r, http.MethodPost, "/api/admin/cache/refresh")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Caches refreshed", body["message"])
	assert.Equal(t, 1, chat.calls)

	chat.err = assert.AnError
	code, body = get(t, r, http.MethodPost, "/api/admin/cache/refresh")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to refresh caches", body["error"])
}

func TestStatsDatabaseError(t *testing.T) {
	r, db := setup(t, nil)
	require.NoError(t, db.Migrator().DropTable(&models.Event{}))

	code, body := get(t, r, http.MethodGet, "/api/dashboard")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to get dashboard stats", body["error"])
}
