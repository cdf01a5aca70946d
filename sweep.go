package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stupid-simple/assetkeeper/asset"
	"github.com/stupid-simple/assetkeeper/collector"
	"github.com/stupid-simple/assetkeeper/config"
	"github.com/stupid-simple/assetkeeper/database"
	"github.com/stupid-simple/assetkeeper/storage"
)

func sweepCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	if args.Sweep.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	startTime := time.Now()
	logger.Info().Msg("starting orphan sweep")
	defer func() {
		tookSeconds := time.Since(startTime).Seconds()
		if ctx.Err() != nil {
			logger.Info().Float64("seconds", tookSeconds).Msg("sweep cancelled")
		} else {
			logger.Info().Float64("seconds", tookSeconds).Msg("sweep done")
		}
	}()

	cfg, err := config.LoadFromFile(args.Sweep.Config)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	kinds := asset.Kinds
	if args.Sweep.Kind != "" {
		kind, err := asset.ParseKind(args.Sweep.Kind)
		if err != nil {
			return err
		}
		kinds = []asset.Kind{kind}
	}

	grace := cfg.Sweep.GracePeriod.Duration
	if args.Sweep.GracePeriod.Duration > 0 {
		grace = args.Sweep.GracePeriod.Duration
	}

	dbCli, err := newSQLite(args.Sweep.Database, logger)
	if err != nil {
		return fmt.Errorf("could not open database: %w", err)
	}

	db := &database.Database{
		Cli:    dbCli,
		Logger: logger,
		DryRun: args.Sweep.DryRun,
	}

	files, err := storage.New(cfg.ImageDir, cfg.VideoDir, logger)
	if err != nil {
		return fmt.Errorf("could not prepare storage roots: %w", err)
	}

	col := collector.New(collector.CollectorParams{
		DB:          db,
		Files:       files,
		Logger:      logger,
		GracePeriod: grace,
	})

	for _, kind := range kinds {
		if ctx.Err() != nil {
			break
		}
		if err := col.Sweep(ctx, kind); err != nil {
			return err
		}
	}

	return nil
}
