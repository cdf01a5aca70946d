package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/stupid-simple/assetkeeper/asset"
	"github.com/stupid-simple/assetkeeper/config"
	"github.com/stupid-simple/assetkeeper/database"
	"github.com/stupid-simple/assetkeeper/storage"
)

func scanCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	startTime := time.Now()
	logger.Info().Msg("starting reconciliation scan")
	defer func() {
		tookSeconds := time.Since(startTime).Seconds()
		if ctx.Err() != nil {
			logger.Info().Float64("seconds", tookSeconds).Msg("scan cancelled")
		} else {
			logger.Info().Float64("seconds", tookSeconds).Msg("scan done")
		}
	}()

	cfg, err := config.LoadFromFile(args.Scan.Config)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	dbCli, err := newSQLite(args.Scan.Database, logger)
	if err != nil {
		return fmt.Errorf("could not open database: %w", err)
	}

	db := &database.Database{
		Cli:    dbCli,
		Logger: logger,
	}

	files, err := storage.New(cfg.ImageDir, cfg.VideoDir, logger)
	if err != nil {
		return fmt.Errorf("could not prepare storage roots: %w", err)
	}

	var totalFreed int64
	leaked := 0
	for _, kind := range asset.Kinds {
		if ctx.Err() != nil {
			break
		}

		freed, count, err := scanKind(ctx, scanParams{
			kind:   kind,
			db:     db,
			files:  files,
			minAge: cfg.Sweep.GracePeriod.Duration,
			delete: args.Scan.Delete,
			logger: logger,
		})
		if err != nil {
			return err
		}
		totalFreed += freed
		leaked += count
	}

	logger.Info().
		Int("unreferenced", leaked).
		Str("size", units.HumanSize(float64(totalFreed))).
		Bool("deleted", args.Scan.Delete).
		Msg("reconciliation scan finished")
	return nil
}

type scanParams struct {
	kind   asset.Kind
	db     *database.Database
	files  *storage.Store
	minAge time.Duration
	delete bool
	logger zerolog.Logger
}

// scanKind walks one storage root and reports files the database does not
// reference. Files younger than minAge are skipped: an in-flight upload
// writes its file before its row exists and must not show up as leaked.
func scanKind(ctx context.Context, p scanParams) (int64, int, error) {
	referenced, err := referencedNames(ctx, p.db, p.kind)
	if err != nil {
		return 0, 0, fmt.Errorf("could not list %s assets: %w", p.kind, err)
	}

	seq, err := asset.ScanDirectory(ctx, p.files.Root(p.kind), p.logger)
	if err != nil {
		return 0, 0, fmt.Errorf("could not scan %s root: %w", p.kind, err)
	}

	cutoff := time.Now().Add(-p.minAge)
	var freed int64
	leaked := 0
	for f := range seq {
		if ctx.Err() != nil {
			break
		}
		if _, ok := referenced[f.Name]; ok {
			continue
		}
		if f.ModTime.After(cutoff) {
			p.logger.Debug().Object("file", f).Msg("skipping recent unreferenced file")
			continue
		}

		leaked++
		if !p.delete {
			p.logger.Info().Object("file", f).Msg("found unreferenced file")
			freed += f.Size
			continue
		}

		if err := os.Remove(f.Path); err != nil {
			p.logger.Error().Err(err).Str("path", f.Path).Msg("could not delete unreferenced file")
			continue
		}
		p.logger.Info().Object("file", f).Msg("deleted unreferenced file")
		freed += f.Size
	}

	return freed, leaked, nil
}

// referencedNames collects every filename the database accounts for: the
// stored originals plus their derived variants.
func referencedNames(ctx context.Context, db *database.Database, kind asset.Kind) (map[string]struct{}, error) {
	records, err := db.ListAssets(ctx, kind)
	if err != nil {
		return nil, err
	}

	names := make(map[string]struct{}, len(records)*2)
	for _, record := range records {
		names[record.Filename] = struct{}{}
		switch kind {
		case asset.Image:
			names[asset.ThumbnailName(record.Filename)] = struct{}{}
		case asset.Video:
			names[asset.PosterName(record.Filename)] = struct{}{}
			if record.Video != nil && record.Video.PosterFilename != nil {
				names[*record.Video.PosterFilename] = struct{}{}
			}
		}
	}
	return names, nil
}
