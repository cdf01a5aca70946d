package database

import (
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Database wraps the gorm handle with the process logger and the dry-run
// flag. The mutex serializes access to the single-writer sqlite file.
type Database struct {
	Lock   sync.Mutex
	Cli    *gorm.DB
	Logger zerolog.Logger
	DryRun bool
}

// Models lists everything AutoMigrate needs, in FK dependency order.
func Models() []any {
	return []any{&Article{}, &Asset{}, &ImageMeta{}, &VideoMeta{}}
}
