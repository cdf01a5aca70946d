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
	"github.com/stupid-simple/assetkeeper/fileutils"
	"github.com/stupid-simple/assetkeeper/scheduler"
	"github.com/stupid-simple/assetkeeper/storage"
)

func daemonCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	if args.Daemon.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	if args.Daemon.Database == "" {
		return fmt.Errorf("no database specified")
	}

	cfg, err := config.LoadFromFile(args.Daemon.Config)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	dbCli, err := newSQLite(args.Daemon.Database, logger)
	if err != nil {
		return fmt.Errorf("could not open database: %w", err)
	}

	db := &database.Database{
		Cli:    dbCli,
		Logger: logger,
		DryRun: args.Daemon.DryRun,
	}

	files, err := storage.New(cfg.ImageDir, cfg.VideoDir, logger)
	if err != nil {
		return fmt.Errorf("could not prepare storage roots: %w", err)
	}

	sched := scheduler.NewScheduler(scheduler.SchedulerParams{
		Logger: logger,
	})

	addSweepJobsFromConfig(ctx, sched, cfg, db, files, logger)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	startConfigFileWatcher(ctx, args.Daemon.Config, logger, ticker, func(cfg *config.Config) {
		sched.RemoveJobs()
		addSweepJobsFromConfig(ctx, sched, cfg, db, files, logger)
	})

	logger.Info().Object("config", *cfg).Msg("asset lifecycle service started")

	sched.Start()
	defer sched.Stop()

	<-ctx.Done()

	return nil
}

func addSweepJobsFromConfig(
	ctx context.Context,
	sched *scheduler.Scheduler,
	cfg *config.Config,
	db *database.Database,
	files *storage.Store,
	logger zerolog.Logger,
) {
	if !cfg.Sweep.Enable {
		logger.Info().Msg("orphan sweep disabled")
		return
	}

	col := collector.New(collector.CollectorParams{
		DB:          db,
		Files:       files,
		Logger:      logger,
		GracePeriod: cfg.Sweep.GracePeriod.Duration,
	})

	for _, kind := range asset.Kinds {
		job := &sweepJob{
			ctx:       ctx,
			kind:      kind,
			collector: col,
			logger:    logger,
		}
		if err := sched.AddJob(cfg.Sweep.Schedule, job); err != nil {
			logger.Error().Err(err).Str("kind", kind.String()).Msg("could not add sweep job")
			continue
		}

		logger.Info().
			Str("kind", kind.String()).
			Str("schedule", cfg.Sweep.Schedule).
			Dur("grace_period", cfg.Sweep.GracePeriod.Duration).
			Msg("added sweep job")
	}
}

func startConfigFileWatcher(ctx context.Context, cfgPath string, logger zerolog.Logger, ticker *time.Ticker, onChanged func(cfg *config.Config)) {
	logger.Info().Str("path", cfgPath).Msg("watching config file for changes")
	watcher, err := fileutils.WatchFile(ctx, cfgPath, when(ticker.C), func(err error) {
		logger.Error().Err(err).Msg("could not watch config file")
	})
	if err != nil {
		logger.Error().Err(err).Msg("could not watch config file")
		return
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-watcher:
				logger.Info().Str("path", cfgPath).Msg("config file changed, reloading")

				cfg, err := config.LoadFromFile(cfgPath)
				if err != nil {
					logger.Error().Err(err).Msg("could not load config")
					break
				}

				onChanged(cfg)
			}
		}
	}()
}

func when[T any](ch <-chan T) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		for range ch {
			out <- struct{}{}
		}
	}()
	return out
}

// sweepJob runs one orphan sweep per kind on the cron schedule. A failed
// sweep is logged and retried on the next tick; it never takes the scheduler
// down.
type sweepJob struct {
	ctx       context.Context
	kind      asset.Kind
	collector *collector.Collector
	logger    zerolog.Logger
}

func (s *sweepJob) Run() {
	if err := s.collector.Sweep(s.ctx, s.kind); err != nil {
		s.logger.Error().Err(err).Str("kind", s.kind.String()).Msg("sweep job failed")
	}
}
