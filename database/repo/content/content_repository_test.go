package content

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlab/mba-portal/database/dbtest"
	"github.com/cohortlab/mba-portal/database/models"
)

func TestContentRepository_TopInterviews(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)

	for i := 0; i < 15; i++ {
		require.NoError(t, db.Create(&models.InterviewExperience{
			Company: fmt.Sprintf("Company %02d", i),
			Role:    "Associate",
			Upvotes: i,
		}).Error)
	}

	list, err := repo.TopInterviews(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 10)
	assert.Equal(t, 14, list[0].Upvotes)
	assert.Equal(t, 5, list[9].Upvotes)
}

func TestContentRepository_RecentAndEvents(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 7; i++ {
		require.NoError(t, db.Create(&models.Announcement{
			Base:  models.Base{CreatedAt: now.Add(-time.Duration(i) * time.Hour)},
			Title: fmt.Sprintf("A%d", i),
		}).Error)
		require.NoError(t, db.Create(&models.Resource{
			Base:  models.Base{CreatedAt: now.Add(-time.Duration(i) * time.Hour)},
			Title: fmt.Sprintf("R%d", i),
		}).Error)
	}

	announcements, err := repo.RecentAnnouncements(ctx, 5)
	require.NoError(t, err)
	require.Len(t, announcements, 5)
	assert.Equal(t, "A0", announcements[0].Title)

	resources, err := repo.RecentResources(ctx, 3)
	require.NoError(t, err)
	require.Len(t, resources, 3)
	assert.Equal(t, "R0", resources[0].Title)

	require.NoError(t, db.Create(&models.Event{Title: "past", EventDate: now.Add(-48 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.Event{Title: "later", EventDate: now.Add(72 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.Event{Title: "soon", EventDate: now.Add(24 * time.Hour)}).Error)

	events, err := repo.ListEvents(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "soon", events[0].Title)

	all, err := repo.ListEvents(ctx, time.Time{}, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
