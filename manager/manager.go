// Package manager ties the metadata store, the physical file store and the
// variant generator into the asset lifecycle operations: upload, association,
// article deletion and path resolution.
//
// Every operation keeps one direction of the row/file consistency rule:
// writes create the physical file before its row, deletes remove rows before
// their files. A crash can therefore leak files but never leave a row
// pointing at nothing; leaked files are reclaimed by the orphan sweep and the
// reconciliation scan.
package manager

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"sync"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/stupid-simple/assetkeeper/asset"
	"github.com/stupid-simple/assetkeeper/database"
	"github.com/stupid-simple/assetkeeper/storage"
	"github.com/stupid-simple/assetkeeper/variant"
)

type ManagerParams struct {
	DB       *database.Database
	Files    *storage.Store
	Variants *variant.Generator
	Logger   zerolog.Logger

	// MaxUploadSize of zero means unlimited.
	MaxUploadSize       int64
	MaxVideosPerArticle int
}

type Manager struct {
	db       *database.Database
	files    *storage.Store
	variants *variant.Generator
	logger   zerolog.Logger

	maxUploadSize       int64
	maxVideosPerArticle int

	// Tracks post-commit file cleanup goroutines so shutdown can wait for
	// them instead of leaking files on every restart.
	cleanup sync.WaitGroup
}

func New(params ManagerParams) *Manager {
	if params.MaxVideosPerArticle <= 0 {
		params.MaxVideosPerArticle = 2
	}
	return &Manager{
		db:                  params.DB,
		files:               params.Files,
		variants:            params.Variants,
		logger:              params.Logger,
		maxUploadSize:       params.MaxUploadSize,
		maxVideosPerArticle: params.MaxVideosPerArticle,
	}
}

type UploadParams struct {
	OwnerID      uint
	OriginalName string
	MimeType     string
	Kind         asset.Kind
	Content      io.Reader
}

// Upload stores the content under a fresh timestamp-derived filename, then
// creates the asset row. The file is written first so a failure between the
// two steps leaves a leaked file, never a dangling row; the row creation
// failing removes the file again. Derived variants are generated after the
// row exists and never fail the upload.
func (m *Manager) Upload(ctx context.Context, p UploadParams) (*database.Asset, error) {
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", asset.ErrUnknownKind, p.Kind)
	}

	name := asset.NewName(p.OriginalName)
	size, hash, err := m.files.Write(p.Kind, name, p.Content, m.maxUploadSize)
	if err != nil {
		return nil, fmt.Errorf("could not store upload: %w", err)
	}

	width, height := 0, 0
	if p.Kind == asset.Image {
		width, height = m.probeImageSize(name)
	}

	record, err := m.db.CreateAsset(ctx, database.CreateAssetParams{
		OwnerID:  p.OwnerID,
		Filename: name,
		MimeType: p.MimeType,
		Size:     size,
		Hash:     int64(hash),
		Kind:     p.Kind,
		Width:    width,
		Height:   height,
	})
	if err != nil {
		if _, rmErr := m.files.Remove(p.Kind, name); rmErr != nil {
			m.logger.Warn().Err(rmErr).Str("filename", name).Msg("could not remove file after failed row creation")
		}
		return nil, err
	}

	switch p.Kind {
	case asset.Image:
		if err := m.variants.Thumbnail(name); err != nil {
			m.logger.Warn().Err(err).Str("filename", name).Msg("could not generate thumbnail")
		}
	case asset.Video:
		if err := m.variants.EnqueuePoster(ctx, record.ID, name); err != nil {
			m.logger.Warn().Err(err).Str("filename", name).Msg("could not enqueue poster job")
		}
	}

	m.logger.Info().
		Object("asset", record).
		Str("size", units.HumanSize(float64(size))).
		Msg("uploaded asset")
	return record, nil
}

func (m *Manager) probeImageSize(name string) (int, int) {
	fil, err := m.files.Open(asset.Image, name)
	if err != nil {
		m.logger.Warn().Err(err).Str("filename", name).Msg("could not probe image dimensions")
		return 0, 0
	}
	defer fil.Close()

	cfg, _, err := image.DecodeConfig(fil)
	if err != nil {
		m.logger.Warn().Err(err).Str("filename", name).Msg("could not probe image dimensions")
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// Associate rebinds the article's asset set of one kind. For videos the
// per-article count cap applies before anything is touched.
func (m *Manager) Associate(ctx context.Context, articleID uint, kind asset.Kind, assetIDs []uint, coverID *uint) (*database.AssociationResult, error) {
	if kind == asset.Video && uniqueCount(assetIDs) > m.maxVideosPerArticle {
		return nil, fmt.Errorf("%w: maximum %d", asset.ErrTooManyVideos, m.maxVideosPerArticle)
	}
	return m.db.Associate(ctx, articleID, kind, assetIDs, coverID)
}

// DeleteArticle deletes the article row and every asset row bound to it, then
// removes the physical files in the background. The goroutine runs only after
// the transaction committed, so a failed commit never loses files.
func (m *Manager) DeleteArticle(ctx context.Context, articleID uint) error {
	removed, err := m.db.DeleteArticleAssets(ctx, articleID)
	if err != nil {
		return err
	}
	if m.db.DryRun || len(removed) == 0 {
		return nil
	}

	m.cleanup.Add(1)
	go func() {
		defer m.cleanup.Done()
		m.removeFiles(articleID, removed)
	}()
	return nil
}

// Wait blocks until all background file cleanup finished. Called on shutdown
// and by tests.
func (m *Manager) Wait() {
	m.cleanup.Wait()
}

// removeFiles deletes each file and its derived variants, best effort. A
// failed delete is logged and skipped; the reconciliation scan picks up the
// leftovers.
func (m *Manager) removeFiles(articleID uint, removed []database.RemovedFile) {
	var freed int64
	files := 0
	for _, rf := range removed {
		names := []string{rf.Filename}
		if rf.Kind == asset.Image {
			names = append(names, asset.ThumbnailName(rf.Filename))
		}
		if rf.Poster != "" {
			names = append(names, rf.Poster)
		}
		for _, name := range names {
			size, err := m.files.Remove(rf.Kind, name)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					m.logger.Warn().Err(err).Str("filename", name).Msg("could not remove file")
				}
				continue
			}
			freed += size
			files++
		}
	}

	m.logger.Info().
		Uint("article_id", articleID).
		Int("files", files).
		Str("freed", units.HumanSize(float64(freed))).
		Msg("removed article files")
}

// ResolvePhysicalPath maps a stored filename and an optional variant label to
// the physical path of the file to serve. The variant must match the asset's
// kind: "small" is image-only, "poster" video-only.
func (m *Manager) ResolvePhysicalPath(ctx context.Context, filename string, variantLabel string) (string, error) {
	record, err := m.db.FindByFilename(ctx, filename)
	if err != nil {
		return "", err
	}

	switch variantLabel {
	case "small":
		if record.Kind != asset.Image {
			return "", fmt.Errorf("%w: no %q variant for %s", asset.ErrNotFound, variantLabel, record.Kind)
		}
	case "poster":
		if record.Kind != asset.Video {
			return "", fmt.Errorf("%w: no %q variant for %s", asset.ErrNotFound, variantLabel, record.Kind)
		}
	}

	return m.files.ResolvePath(record.Kind, record.Filename, variantLabel)
}

// ArticleAssets lists the assets of one kind bound to an article, cover first
// for images.
func (m *Manager) ArticleAssets(ctx context.Context, articleID uint, kind asset.Kind) ([]database.Asset, error) {
	return m.db.ArticleAssets(ctx, articleID, kind)
}

func uniqueCount(ids []uint) int {
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
