package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	ImageDir string       `json:"image_dir"`
	VideoDir string       `json:"video_dir"`
	Sweep    SweepConfig  `json:"sweep"`
	Upload   UploadConfig `json:"upload"`
}

// SweepConfig controls the orphan collector. The grace period must exceed the
// longest realistic delay between uploading an asset and publishing the
// article that binds it; shortening it risks collecting assets a client is
// about to bind.
type SweepConfig struct {
	Enable      bool             `json:"enable"`
	Schedule    string           `json:"cron"`
	GracePeriod DurationArgument `json:"grace_period"`
}

type UploadConfig struct {
	MaxUploadSize       SizeArgument     `json:"max_upload_size"`
	MaxVideosPerArticle int              `json:"max_videos_per_article"`
	ThumbnailWidth      int              `json:"thumbnail_width"`
	PosterWidth         int              `json:"poster_width"`
	PosterSeek          DurationArgument `json:"poster_seek"`
	PosterWorkers       int              `json:"poster_workers"`
}

const (
	defaultSchedule      = "0 2 * * *"
	defaultGracePeriod   = 24 * time.Hour
	defaultMaxVideos     = 2
	defaultThumbWidth    = 320
	defaultPosterWidth   = 640
	defaultPosterSeek    = 1 * time.Second
	defaultPosterWorkers = 2
)

func (c *Config) applyDefaults() {
	if c.Sweep.Schedule == "" {
		c.Sweep.Schedule = defaultSchedule
	}
	if c.Sweep.GracePeriod.Duration == 0 {
		c.Sweep.GracePeriod.Duration = defaultGracePeriod
	}
	if c.Upload.MaxVideosPerArticle == 0 {
		c.Upload.MaxVideosPerArticle = defaultMaxVideos
	}
	if c.Upload.ThumbnailWidth == 0 {
		c.Upload.ThumbnailWidth = defaultThumbWidth
	}
	if c.Upload.PosterWidth == 0 {
		c.Upload.PosterWidth = defaultPosterWidth
	}
	if c.Upload.PosterSeek.Duration == 0 {
		c.Upload.PosterSeek.Duration = defaultPosterSeek
	}
	if c.Upload.PosterWorkers == 0 {
		c.Upload.PosterWorkers = defaultPosterWorkers
	}
}

func (c *Config) validate() error {
	if c.ImageDir == "" {
		return fmt.Errorf("image_dir is required")
	}
	if c.VideoDir == "" {
		return fmt.Errorf("video_dir is required")
	}
	if c.ImageDir == c.VideoDir {
		return fmt.Errorf("image_dir and video_dir must differ")
	}
	if c.Sweep.GracePeriod.Duration < 0 {
		return fmt.Errorf("grace_period must not be negative")
	}
	return nil
}

func (c Config) MarshalZerologObject(e *zerolog.Event) {
	e.Str("image_dir", c.ImageDir)
	e.Str("video_dir", c.VideoDir)
	e.Bool("sweep_enable", c.Sweep.Enable)
	e.Str("sweep_schedule", c.Sweep.Schedule)
	e.Dur("grace_period", c.Sweep.GracePeriod.Duration)

	if c.Upload.MaxUploadSize.Size > 0 {
		e.Int64("max_upload_size", c.Upload.MaxUploadSize.Size)
	}
	e.Int("max_videos_per_article", c.Upload.MaxVideosPerArticle)
}
