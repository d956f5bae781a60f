package gallery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cohortlab/mba-portal/database/dbtest"
	"github.com/cohortlab/mba-portal/database/models"
)

func seedImage(t *testing.T, repo *Repository, album, owner string, createdAt time.Time) *models.GalleryImage {
	t.Helper()
	img := &models.GalleryImage{
		Base:       models.Base{CreatedAt: createdAt},
		AlbumName:  album,
		ImageURL:   "https://cdn.example.com/" + album,
		UploadedBy: owner,
		PublicID:   "gallery/" + album + "/x.png",
	}
	require.NoError(t, repo.Create(context.Background(), img))
	return img
}

func TestGalleryRepository_CreateAndGet(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	img := seedImage(t, repo, "General", "u1", time.Now())

	assert.NotEmpty(t, img.ID)

	got, err := repo.GetByID(context.Background(), img.ID)
	require.NoError(t, err)
	assert.Equal(t, "General", got.AlbumName)
	assert.True(t, got.OwnedBy("u1"))
	assert.False(t, got.OwnedBy("u2"))

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGalleryRepository_DeleteTwice(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	img := seedImage(t, repo, "General", "u1", time.Now())

	require.NoError(t, repo.DeleteByID(context.Background(), img.ID))
	assert.ErrorIs(t, repo.DeleteByID(context.Background(), img.ID), gorm.ErrRecordNotFound)
}

func TestGalleryRepository_ListAndAlbums(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	now := time.Now()
	seedImage(t, repo, "General", "u1", now.Add(-3*time.Hour))
	seedImage(t, repo, "Orientation", "u1", now.Add(-2*time.Hour))
	newest := seedImage(t, repo, "Orientation", "u2", now.Add(-time.Hour))

	images, total, err := repo.List(context.Background(), "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, images, 3)
	assert.Equal(t, newest.ID, images[0].ID)

	images, total, err = repo.List(context.Background(), "Orientation", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, images, 1)

	albums, err := repo.ListAlbums(context.Background())
	require.NoError(t, err)
	require.Len(t, albums, 2)
	assert.Equal(t, AlbumCount{AlbumName: "Orientation", Count: 2}, albums[0])

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
