package database_test

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/stupid-simple/assetkeeper/database"
)

func newTestDB(t *testing.T) *database.Database {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "assets.db") + "?_pragma=foreign_keys(1)"
	cli, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, cli.AutoMigrate(database.Models()...))

	return &database.Database{Cli: cli, Logger: zerolog.New(zerolog.NewTestWriter(t))}
}

func createArticle(t *testing.T, db *database.Database, id uint) {
	t.Helper()
	require.NoError(t, db.Cli.Create(&database.Article{ID: id, AuthorID: 1}).Error)
}
