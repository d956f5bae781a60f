package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlab/mba-portal/database/dbtest"
	"github.com/cohortlab/mba-portal/database/models"
)

func TestStatsRepository(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&models.Profile{ID: "a0000000-0000-0000-0000-000000000001", Name: "A", Email: "a@x.edu"}).Error)
	require.NoError(t, db.Create(&models.Profile{ID: "a0000000-0000-0000-0000-000000000002", Name: "B", Email: "b@x.edu"}).Error)
	require.NoError(t, db.Create(&models.Event{Title: "Past", EventDate: now.AddDate(0, 0, -3)}).Error)
	require.NoError(t, db.Create(&models.Event{Title: "Soon", EventDate: now.AddDate(0, 0, 2)}).Error)
	require.NoError(t, db.Create(&models.Resource{Title: "Guide"}).Error)

	uploader := "a0000000-0000-0000-0000-000000000001"
	for _, at := range []time.Time{now.AddDate(0, 0, -1), now.AddDate(0, 0, -1).Add(time.Hour), now, now.AddDate(0, 0, -40)} {
		img := &models.GalleryImage{AlbumName: "General", ImageURL: "u", UploadedBy: uploader}
		img.CreatedAt = at
		require.NoError(t, db.Create(img).Error)
	}

	stats, err := repo.GetOverviewStats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Members)
	assert.Equal(t, int64(1), stats.UpcomingEvents)
	assert.Equal(t, int64(4), stats.GalleryImages)
	assert.Equal(t, int64(0), stats.Interviews)
	assert.Equal(t, int64(1), stats.Resources)

	daily, err := repo.GetDailyUploads(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, []DailyStat{
		{Date: "2026-10-14", Count: 2},
		{Date: "2026-10-15", Count: 1},
	}, daily)
}
