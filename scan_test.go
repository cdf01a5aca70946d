package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/stupid-simple/assetkeeper/asset"
	"github.com/stupid-simple/assetkeeper/database"
	"github.com/stupid-simple/assetkeeper/storage"
)

func newScanFixture(t *testing.T) (*database.Database, *storage.Store) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "assets.db") + "?_pragma=foreign_keys(1)"
	cli, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, cli.AutoMigrate(database.Models()...))
	db := &database.Database{Cli: cli, Logger: zerolog.Nop()}

	files, err := storage.New(t.TempDir(), t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return db, files
}

func addReferenced(t *testing.T, db *database.Database, files *storage.Store, kind asset.Kind, filename string) {
	t.Helper()
	require.NoError(t, db.Cli.Create(&database.Asset{
		OwnerID:  1,
		Filename: filename,
		Kind:     kind,
	}).Error)
	_, _, err := files.Write(kind, filename, strings.NewReader("data"), 0)
	require.NoError(t, err)
}

func addLeaked(t *testing.T, files *storage.Store, kind asset.Kind, filename string, age time.Duration) {
	t.Helper()
	_, _, err := files.Write(kind, filename, strings.NewReader("leak"), 0)
	require.NoError(t, err)
	path, err := files.Path(kind, filename)
	require.NoError(t, err)
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestScanKindReportsLeakedFiles(t *testing.T) {
	db, files := newScanFixture(t)
	ctx := context.Background()

	addReferenced(t, db, files, asset.Image, "100.jpg")
	addLeaked(t, files, asset.Image, "900.jpg", 48*time.Hour)

	freed, leaked, err := scanKind(ctx, scanParams{
		kind:   asset.Image,
		db:     db,
		files:  files,
		minAge: 24 * time.Hour,
		logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, leaked)
	assert.EqualValues(t, 4, freed)

	// Report only: nothing deleted.
	assert.True(t, files.Exists(asset.Image, "900.jpg"))
	assert.True(t, files.Exists(asset.Image, "100.jpg"))
}

func TestScanKindDeletesLeakedFiles(t *testing.T) {
	db, files := newScanFixture(t)
	ctx := context.Background()

	addReferenced(t, db, files, asset.Image, "100.jpg")
	addLeaked(t, files, asset.Image, "900.jpg", 48*time.Hour)

	_, leaked, err := scanKind(ctx, scanParams{
		kind:   asset.Image,
		db:     db,
		files:  files,
		minAge: 24 * time.Hour,
		delete: true,
		logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, leaked)
	assert.False(t, files.Exists(asset.Image, "900.jpg"))
	assert.True(t, files.Exists(asset.Image, "100.jpg"))
}

func TestScanKindSkipsRecentAndDerivedFiles(t *testing.T) {
	db, files := newScanFixture(t)
	ctx := context.Background()

	addReferenced(t, db, files, asset.Image, "100.jpg")
	// The thumbnail belongs to its original even though no row names it.
	_, _, err := files.Write(asset.Image, asset.ThumbnailName("100.jpg"), strings.NewReader("thumb"), 0)
	require.NoError(t, err)
	// A fresh unreferenced file could be an upload whose row is about to land.
	_, _, err = files.Write(asset.Image, "901.jpg", strings.NewReader("inflight"), 0)
	require.NoError(t, err)

	_, leaked, err := scanKind(ctx, scanParams{
		kind:   asset.Image,
		db:     db,
		files:  files,
		minAge: time.Hour,
		delete: true,
		logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.Zero(t, leaked)
	assert.True(t, files.Exists(asset.Image, "100-small.jpg"))
	assert.True(t, files.Exists(asset.Image, "901.jpg"))
}

func TestReferencedNamesIncludesVariants(t *testing.T) {
	db, _ := newScanFixture(t)
	ctx := context.Background()

	require.NoError(t, db.Cli.Create(&database.Asset{OwnerID: 1, Filename: "200.mp4", Kind: asset.Video}).Error)
	poster := "200-poster.jpg"
	require.NoError(t, db.Cli.Create(&database.VideoMeta{AssetID: 1, PosterFilename: &poster}).Error)

	names, err := referencedNames(ctx, db, asset.Video)
	require.NoError(t, err)
	assert.Contains(t, names, "200.mp4")
	assert.Contains(t, names, "200-poster.jpg")
}
