package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupid-simple/assetkeeper/asset"
	"github.com/stupid-simple/assetkeeper/database"
)

func createImage(t *testing.T, db *database.Database, filename string) *database.Asset {
	t.Helper()
	record, err := db.CreateAsset(context.Background(), database.CreateAssetParams{
		OwnerID:  1,
		Filename: filename,
		MimeType: "image/jpeg",
		Size:     100,
		Kind:     asset.Image,
		Width:    640,
		Height:   480,
	})
	require.NoError(t, err)
	return record
}

func createVideo(t *testing.T, db *database.Database, filename string) *database.Asset {
	t.Helper()
	record, err := db.CreateAsset(context.Background(), database.CreateAssetParams{
		OwnerID:  1,
		Filename: filename,
		MimeType: "video/mp4",
		Size:     1000,
		Kind:     asset.Video,
	})
	require.NoError(t, err)
	return record
}

func TestCreateAsset(t *testing.T) {
	db := newTestDB(t)

	img := createImage(t, db, "100.jpg")
	assert.NotZero(t, img.ID)
	require.NotNil(t, img.Image)
	assert.Equal(t, 640, img.Image.Width)
	assert.False(t, img.Image.IsCover)

	vid := createVideo(t, db, "200.mp4")
	require.NotNil(t, vid.Video)
	assert.Equal(t, asset.TranscodePending, vid.Video.TranscodeStatus)
	assert.Nil(t, vid.Video.PosterFilename)
}

func TestCreateAssetDuplicateFilename(t *testing.T) {
	db := newTestDB(t)

	createImage(t, db, "100.jpg")
	_, err := db.CreateAsset(context.Background(), database.CreateAssetParams{
		OwnerID:  2,
		Filename: "100.jpg",
		Kind:     asset.Image,
	})
	require.Error(t, err)

	// The failed insert must not leave a stray metadata row behind.
	var count int64
	require.NoError(t, db.Cli.Model(&database.ImageMeta{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateAssetUnknownKind(t *testing.T) {
	db := newTestDB(t)
	_, err := db.CreateAsset(context.Background(), database.CreateAssetParams{
		Filename: "100.bin",
		Kind:     asset.Kind("document"),
	})
	assert.ErrorIs(t, err, asset.ErrUnknownKind)
}

func TestFindByFilename(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := createImage(t, db, "1700000000000.jpg")

	found, err := db.FindByFilename(ctx, "1700000000000.jpg")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.NotNil(t, found.Image)

	// Prefix lookup resolves a bare stem to its asset.
	found, err = db.FindByFilename(ctx, "1700000000000")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = db.FindByFilename(ctx, "1800000000000")
	assert.ErrorIs(t, err, asset.ErrNotFound)
}

func TestFindByIDsOmitsUnknown(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	img := createImage(t, db, "100.jpg")
	vid := createVideo(t, db, "200.mp4")

	records, err := db.FindByIDs(ctx, asset.Image, []uint{img.ID, vid.ID, 999})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, img.ID, records[0].ID)

	records, err = db.FindByIDs(ctx, asset.Image, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDeleteAssetsCascadesMetadata(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	img := createImage(t, db, "100.jpg")
	vid := createVideo(t, db, "200.mp4")

	rows, err := db.DeleteAssets(ctx, []uint{img.ID, vid.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, rows)

	var count int64
	require.NoError(t, db.Cli.Model(&database.ImageMeta{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Cli.Model(&database.VideoMeta{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSetPoster(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	vid := createVideo(t, db, "200.mp4")
	require.NoError(t, db.SetPoster(ctx, vid.ID, "200-poster.jpg"))
	require.NoError(t, db.SetTranscodeStatus(ctx, vid.ID, asset.TranscodeCompleted))

	found, err := db.FindByFilename(ctx, "200.mp4")
	require.NoError(t, err)
	require.NotNil(t, found.Video.PosterFilename)
	assert.Equal(t, "200-poster.jpg", *found.Video.PosterFilename)
	assert.Equal(t, asset.TranscodeCompleted, found.Video.TranscodeStatus)

	assert.ErrorIs(t, db.SetPoster(ctx, 999, "x.jpg"), asset.ErrNotFound)
	assert.ErrorIs(t, db.SetTranscodeStatus(ctx, 999, asset.TranscodeFailed), asset.ErrNotFound)
}

func TestListAssets(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createImage(t, db, "100.jpg")
	createImage(t, db, "101.jpg")
	createVideo(t, db, "200.mp4")

	images, err := db.ListAssets(ctx, asset.Image)
	require.NoError(t, err)
	assert.Len(t, images, 2)

	videos, err := db.ListAssets(ctx, asset.Video)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	require.NotNil(t, videos[0].Video)
}
