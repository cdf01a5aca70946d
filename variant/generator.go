package variant

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stupid-simple/assetkeeper/asset"
	"github.com/stupid-simple/assetkeeper/storage"
)

// PosterStore is the slice of the metadata store the generator writes to.
type PosterStore interface {
	SetPoster(ctx context.Context, assetID uint, posterFilename string) error
	SetTranscodeStatus(ctx context.Context, assetID uint, status string) error
}

type GeneratorParams struct {
	Files  *storage.Store
	DB     PosterStore
	Logger zerolog.Logger

	// Optional. Defaults: CatmullRom resizer, ffmpeg extractor.
	Resizer   Resizer
	Extractor FrameExtractor

	ThumbnailWidth int
	PosterWidth    int
	PosterSeek     time.Duration
	Workers        int
	QueueSize      int
}

// Generator produces derived variants: the synchronous image thumbnail and
// the asynchronous video poster frame. Poster jobs run on a bounded worker
// pool; each job only ever touches its own asset's files and DB row, so jobs
// need no coordination beyond the queue.
type Generator struct {
	files     *storage.Store
	db        PosterStore
	logger    zerolog.Logger
	resizer   Resizer
	extractor FrameExtractor

	thumbWidth  int
	posterWidth int
	posterSeek  time.Duration
	workers     int

	queue chan posterJob
	wg    sync.WaitGroup
}

type posterJob struct {
	assetID  uint
	filename string
}

func NewGenerator(params GeneratorParams) *Generator {
	if params.Resizer == nil {
		params.Resizer = NewResizer()
	}
	if params.Extractor == nil {
		params.Extractor = NewFFmpegExtractor()
	}
	if params.ThumbnailWidth <= 0 {
		params.ThumbnailWidth = 320
	}
	if params.PosterWidth <= 0 {
		params.PosterWidth = 640
	}
	if params.PosterSeek <= 0 {
		params.PosterSeek = time.Second
	}
	if params.Workers <= 0 {
		params.Workers = 2
	}
	if params.QueueSize <= 0 {
		params.QueueSize = 32
	}

	return &Generator{
		files:       params.Files,
		db:          params.DB,
		logger:      params.Logger,
		resizer:     params.Resizer,
		extractor:   params.Extractor,
		thumbWidth:  params.ThumbnailWidth,
		posterWidth: params.PosterWidth,
		posterSeek:  params.PosterSeek,
		workers:     params.Workers,
		queue:       make(chan posterJob, params.QueueSize),
	}
}

// Start launches the poster workers. ctx cancellation aborts in-flight
// extractions; Close drains the queue and waits for the workers.
func (g *Generator) Start(ctx context.Context) {
	for range g.workers {
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			for job := range g.queue {
				if ctx.Err() != nil {
					g.logger.Debug().Uint("asset_id", job.assetID).Msg("skipping poster job, shutting down")
					continue
				}
				g.generatePoster(ctx, job)
			}
		}()
	}
}

// Close stops accepting poster jobs and waits for the running ones.
// Must not be called while uploads are still coming in.
func (g *Generator) Close() {
	close(g.queue)
	g.wg.Wait()
}

// Thumbnail synchronously produces <stem>-small.<ext> next to the original
// image. A failure leaves the original servable; callers log and continue.
func (g *Generator) Thumbnail(filename string) error {
	fil, err := g.files.Open(asset.Image, filename)
	if err != nil {
		return fmt.Errorf("could not open image: %w", err)
	}
	src, _, err := image.Decode(fil)
	closeErr := fil.Close()
	if err != nil {
		return fmt.Errorf("could not decode image: %w", err)
	}
	if closeErr != nil {
		return closeErr
	}

	scaled := g.resizer.Resize(src, g.thumbWidth)

	buf := bytes.Buffer{}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 80})
	case ".png":
		err = png.Encode(&buf, scaled)
	case ".gif":
		err = gif.Encode(&buf, scaled, nil)
	default:
		return fmt.Errorf("unsupported thumbnail format: %s", filepath.Ext(filename))
	}
	if err != nil {
		return fmt.Errorf("could not encode thumbnail: %w", err)
	}

	size, _, err := g.files.Write(asset.Image, asset.ThumbnailName(filename), &buf, 0)
	if err != nil {
		return fmt.Errorf("could not write thumbnail: %w", err)
	}

	g.logger.Debug().
		Str("filename", asset.ThumbnailName(filename)).
		Int64("size", size).
		Msg("generated thumbnail")
	return nil
}

// EnqueuePoster schedules poster generation for a video. Blocks only when
// the queue is full (upload bursts); the job itself is fire-and-forget.
func (g *Generator) EnqueuePoster(ctx context.Context, assetID uint, filename string) error {
	select {
	case g.queue <- posterJob{assetID: assetID, filename: filename}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Generator) generatePoster(ctx context.Context, job posterJob) {
	logger := g.logger.With().Uint("asset_id", job.assetID).Str("filename", job.filename).Logger()

	if err := g.db.SetTranscodeStatus(ctx, job.assetID, asset.TranscodeProcessing); err != nil {
		logger.Warn().Err(err).Msg("could not mark video processing")
	}

	videoPath, err := g.files.Path(asset.Video, job.filename)
	if err != nil {
		g.posterFailed(ctx, logger, job, err)
		return
	}
	posterName := asset.PosterName(job.filename)
	posterPath, err := g.files.Path(asset.Video, posterName)
	if err != nil {
		g.posterFailed(ctx, logger, job, err)
		return
	}

	if err := g.extractor.ExtractFrame(ctx, videoPath, posterPath, g.posterWidth, g.posterSeek); err != nil {
		g.posterFailed(ctx, logger, job, err)
		return
	}

	if err := g.db.SetPoster(ctx, job.assetID, posterName); err != nil {
		g.posterFailed(ctx, logger, job, err)
		return
	}
	if err := g.db.SetTranscodeStatus(ctx, job.assetID, asset.TranscodeCompleted); err != nil {
		logger.Warn().Err(err).Msg("could not mark video completed")
	}

	logger.Info().Str("poster", posterName).Msg("generated video poster")
}

// posterFailed logs and marks the row; the upload stays valid with a NULL
// poster. There is no retry queue: recovery is operator intervention or a
// client re-upload.
func (g *Generator) posterFailed(ctx context.Context, logger zerolog.Logger, job posterJob, cause error) {
	logger.Error().Err(cause).Msg("poster generation failed")
	if err := g.db.SetTranscodeStatus(ctx, job.assetID, asset.TranscodeFailed); err != nil {
		logger.Warn().Err(err).Msg("could not mark video failed")
	}
}
