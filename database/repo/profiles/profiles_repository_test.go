package profiles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cohortlab/mba-portal/database/dbtest"
	"github.com/cohortlab/mba-portal/database/models"
)

func TestProfilesRepository(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Profile{ID: "u1", Name: "Jane Doe", Email: "jane@example.edu"}).Error)
	require.NoError(t, db.Create(&models.Profile{ID: "u2", Name: "Adam Admin", Email: "adam@example.edu", IsAdmin: true}).Error)

	p, err := repo.GetByID(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, p.IsAdmin)

	_, err = repo.GetByID(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	list, err := repo.ListAll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Adam Admin", list[0].Name)

	require.NoError(t, repo.UpdateProfilePicture(ctx, "u1", "https://cdn/a.jpg"))
	require.NoError(t, repo.UpdateResumeURL(ctx, "u1", "https://cdn/r.pdf"))
	p, err = repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.jpg", p.ProfilePicture)
	assert.Equal(t, "https://cdn/r.pdf", p.ResumeURL)

	assert.ErrorIs(t, repo.UpdateProfilePicture(ctx, "nobody", "x"), gorm.ErrRecordNotFound)
	assert.NoError(t, repo.UpdateFields(ctx, "u1", nil))

	assert.NoError(t, repo.Probe(ctx))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestProfilesRepository_ProbeFailsWithoutTable(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, db.Migrator().DropTable(&models.Profile{}))

	assert.Error(t, NewRepository(db).Probe(context.Background()))
}
