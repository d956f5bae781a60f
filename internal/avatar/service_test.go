package avatar

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cohortlab/mba-portal/database/dbtest"
	"github.com/cohortlab/mba-portal/database/models"
	"github.com/cohortlab/mba-portal/database/repo/profiles"
	"github.com/cohortlab/mba-portal/internal/auth"
	"github.com/cohortlab/mba-portal/storage/storagetest"
)

const userID = "11111111-1111-1111-1111-111111111111"

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeGIF(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, w, h), []color.Color{color.Black, color.White})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *storagetest.Fake) {
	t.Helper()
	db := dbtest.Open(t)
	require.NoError(t, db.Create(&models.Profile{ID: userID, Name: "Jane", Email: "jane@example.edu"}).Error)
	store := storagetest.New()
	return NewService(profiles.NewRepository(db), store, 5<<20, 512), db, store
}

func TestProcess_Scaling(t *testing.T) {
	out, err := Process(bytes.NewReader(encodePNG(t, 2048, 1024)), 512)
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, 512, out.Width)
	assert.Equal(t, 256, out.Height)

	cfg, err := png.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Width)

	small, err := Process(bytes.NewReader(encodePNG(t, 100, 300)), 512)
	require.NoError(t, err)
	assert.Equal(t, 100, small.Width)
	assert.Equal(t, 300, small.Height)
}

func TestProcess_NonPNGBecomesJPEG(t *testing.T) {
	out, err := Process(bytes.NewReader(encodeGIF(t, 600, 1200)), 512)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.Equal(t, ".jpg", out.Ext)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
}

func TestProcess_Undecodable(t *testing.T) {
	_, err := Process(bytes.NewReader([]byte("definitely not an image")), 512)
	assert.Error(t, err)
}

func TestUpload_Success(t *testing.T) {
	svc, db, store := newTestService(t)
	data := encodePNG(t, 800, 800)

	url, err := svc.Upload(context.Background(), &auth.Principal{UserID: userID}, Upload{
		Reader:      bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.Contains(t, url, "avatars/"+userID+"/")

	var p models.Profile
	require.NoError(t, db.First(&p, "id = ?", userID).Error)
	assert.Equal(t, url, p.ProfilePicture)
	assert.Equal(t, 1, store.Objects())
}

func TestUpload_TooLargeMakesNoStorageCalls(t *testing.T) {
	svc, _, store := newTestService(t)
	data := make([]byte, 6<<20)

	_, err := svc.Upload(context.Background(), &auth.Principal{UserID: userID}, Upload{
		Reader:      bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: "image/jpeg",
	})
	assert.ErrorIs(t, err, ErrTooLarge)

	// 声明大小偏小时按实际读取长度判断
	_, err = svc.Upload(context.Background(), &auth.Principal{UserID: userID}, Upload{
		Reader:      bytes.NewReader(data),
		Size:        100,
		ContentType: "image/jpeg",
	})
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Zero(t, store.Saves())
}

func TestUpload_NotImage(t *testing.T) {
	svc, _, store := newTestService(t)

	_, err := svc.Upload(context.Background(), &auth.Principal{UserID: userID}, Upload{
		Reader:      bytes.NewReader([]byte("%PDF-1.4")),
		Size:        8,
		ContentType: "application/pdf",
	})
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = svc.Upload(context.Background(), &auth.Principal{UserID: userID}, Upload{
		Reader:      bytes.NewReader([]byte("garbage")),
		Size:        7,
		ContentType: "image/png",
	})
	assert.ErrorIs(t, err, ErrNotImage)
	assert.Zero(t, store.Saves())
}

func TestUpload_ProfileUpdateFailureCompensates(t *testing.T) {
	svc, _, store := newTestService(t)
	data := encodePNG(t, 64, 64)

	_, err := svc.Upload(context.Background(), &auth.Principal{UserID: "no-such-profile"}, Upload{
		Reader:      bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: "image/png",
	})
	assert.ErrorIs(t, err, ErrUpdateProfile)
	assert.Equal(t, 1, store.Saves())
	assert.Equal(t, 1, store.Deletes())
	assert.Zero(t, store.Objects())
}
