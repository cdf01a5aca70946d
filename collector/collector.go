// Package collector implements the orphan sweep: assets that were uploaded
// but never published, past a grace period, get their rows and files
// reclaimed.
package collector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/stupid-simple/assetkeeper/asset"
	"github.com/stupid-simple/assetkeeper/database"
	"github.com/stupid-simple/assetkeeper/storage"
)

type CollectorParams struct {
	DB          *database.Database
	Files       *storage.Store
	Logger      zerolog.Logger
	GracePeriod time.Duration
}

type Collector struct {
	db          *database.Database
	files       *storage.Store
	logger      zerolog.Logger
	gracePeriod time.Duration
}

func New(params CollectorParams) *Collector {
	if params.GracePeriod <= 0 {
		params.GracePeriod = 24 * time.Hour
	}
	return &Collector{
		db:          params.DB,
		files:       params.Files,
		logger:      params.Logger,
		gracePeriod: params.GracePeriod,
	}
}

// Sweep reclaims every orphaned asset of one kind older than the grace
// period. Files go first, best effort; rows are deleted in one batch at the
// end, so a file that resists deletion stays in the database and gets
// retried on the next sweep.
func (c *Collector) Sweep(ctx context.Context, kind asset.Kind) error {
	start := time.Now()
	cutoff := start.Add(-c.gracePeriod)

	orphans, err := c.db.FindOrphans(ctx, kind, cutoff)
	if err != nil {
		return fmt.Errorf("could not find orphaned %s assets: %w", kind, err)
	}
	if len(orphans) == 0 {
		c.logger.Debug().Str("kind", kind.String()).Msg("no orphaned assets")
		return nil
	}

	var freed int64
	files := 0
	ids := make([]uint, 0, len(orphans))
	for _, orphan := range orphans {
		if err := ctx.Err(); err != nil {
			return err
		}
		ids = append(ids, orphan.ID)
		for _, name := range derivedNames(orphan) {
			if c.db.DryRun {
				c.logger.Info().Str("filename", name).Msg("would remove orphaned file (dry run)")
				continue
			}
			size, err := c.files.Remove(kind, name)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					c.logger.Warn().Err(err).Str("filename", name).Msg("could not remove orphaned file")
				}
				continue
			}
			freed += size
			files++
		}
	}

	rows, err := c.db.DeleteAssets(ctx, ids)
	if err != nil {
		return fmt.Errorf("could not delete orphaned %s rows: %w", kind, err)
	}

	c.logger.Info().
		Str("kind", kind.String()).
		Int64("rows", rows).
		Int("files", files).
		Str("freed", units.HumanSize(float64(freed))).
		Float64("elapsed_seconds", time.Since(start).Seconds()).
		Bool("dry_run", c.db.DryRun).
		Msg("swept orphaned assets")
	return nil
}

// derivedNames lists the physical files belonging to an orphan: the original
// plus its derived variants. An orphaned video's poster lives in the same
// root and dies with it.
func derivedNames(orphan database.Asset) []string {
	names := []string{orphan.Filename}
	switch orphan.Kind {
	case asset.Image:
		names = append(names, asset.ThumbnailName(orphan.Filename))
	case asset.Video:
		names = append(names, asset.PosterName(orphan.Filename))
	}
	return names
}
