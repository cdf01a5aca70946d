package asset

import (
	"context"
	"io/fs"
	"iter"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// File is a physical file found under one of the storage roots.
type File struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

func (f File) MarshalZerologObject(e *zerolog.Event) {
	e.Str("path", f.Path)
	e.Str("name", f.Name)
	e.Int64("size", f.Size)
}

// ScanDirectory yields every regular file under dirPath. Unreadable entries
// are logged and skipped.
func ScanDirectory(ctx context.Context, dirPath string, logger zerolog.Logger) (iter.Seq[File], error) {
	return func(yield func(File) bool) {
		var scannedCount int

		logger = logger.With().Str("dir", dirPath).Logger()
		logger.Debug().Msg("start scanning files")
		defer func() {
			logger.Debug().Int("scanned", scannedCount).Msg("done scanning files")
		}()

		throttledLogger := logger.Sample(&zerolog.BurstSampler{
			Burst:  1,
			Period: 1 * time.Second,
		})
		err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return nil
			}

			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("could not scan path")
				return nil
			}
			if d.IsDir() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("could not stat path")
				return nil
			}
			if !info.Mode().IsRegular() {
				return nil
			}

			f := File{
				Name:    info.Name(),
				Path:    path,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			}
			if !yield(f) {
				return filepath.SkipAll
			}
			scannedCount++
			throttledLogger.Info().Int("scanned", scannedCount).Msg("scanning files")

			return nil
		})
		if err != nil {
			logger.Error().Err(err).Str("path", dirPath).Msg("could not scan path")
		}
	}, nil
}
