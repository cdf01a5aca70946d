package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stupid-simple/assetkeeper/asset"
)

type CreateAssetParams struct {
	OwnerID  uint
	Filename string
	MimeType string
	Size     int64
	Hash     int64
	Kind     asset.Kind

	// Image dimensions, probed at upload time. Ignored for videos.
	Width  int
	Height int
}

// CreateAsset inserts the asset row and its empty kind-specific metadata row
// in a single transaction. A duplicate filename or any other constraint
// violation rolls both back.
func (d *Database) CreateAsset(ctx context.Context, p CreateAssetParams) (*Asset, error) {
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", asset.ErrUnknownKind, p.Kind)
	}

	record := Asset{
		OwnerID:  p.OwnerID,
		Filename: p.Filename,
		MimeType: p.MimeType,
		Size:     p.Size,
		Hash:     p.Hash,
		Kind:     p.Kind,
	}

	d.Lock.Lock()
	defer d.Lock.Unlock()

	err := d.Cli.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("could not create asset row: %w", err)
		}

		switch p.Kind {
		case asset.Image:
			meta := ImageMeta{AssetID: record.ID, Width: p.Width, Height: p.Height}
			if err := tx.Create(&meta).Error; err != nil {
				return fmt.Errorf("could not create image metadata: %w", err)
			}
			record.Image = &meta
		case asset.Video:
			meta := VideoMeta{AssetID: record.ID, TranscodeStatus: asset.TranscodePending}
			if err := tx.Create(&meta).Error; err != nil {
				return fmt.Errorf("could not create video metadata: %w", err)
			}
			record.Video = &meta
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.Logger.Debug().Object("asset", record).Msg("created asset")
	return &record, nil
}

// FindByFilename resolves an asset by filename prefix. Derived variants share
// the base asset's stem, so a caller holding only a URL filename still finds
// the owning row.
func (d *Database) FindByFilename(ctx context.Context, prefix string) (*Asset, error) {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	record := Asset{}
	err := d.Cli.WithContext(ctx).
		Preload("Image").
		Preload("Video").
		Where("filename LIKE ?", prefix+"%").
		Order("filename").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", asset.ErrNotFound, prefix)
		}
		return nil, err
	}
	return &record, nil
}

// FindByIDs is a batch lookup restricted to one kind. Unknown ids are
// silently omitted: callers diff the result against the request to detect
// invalid ids.
func (d *Database) FindByIDs(ctx context.Context, kind asset.Kind, ids []uint) ([]Asset, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	d.Lock.Lock()
	defer d.Lock.Unlock()

	var records []Asset
	err := d.Cli.WithContext(ctx).
		Preload("Image").
		Preload("Video").
		Where("id IN ? AND kind = ?", ids, kind).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListAssets returns every asset of one kind with its metadata. Used by the
// reconciliation scan to build the set of filenames the database knows about.
func (d *Database) ListAssets(ctx context.Context, kind asset.Kind) ([]Asset, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", asset.ErrUnknownKind, kind)
	}

	d.Lock.Lock()
	defer d.Lock.Unlock()

	var records []Asset
	err := d.Cli.WithContext(ctx).
		Preload("Image").
		Preload("Video").
		Where("kind = ?", kind).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteAssets hard-deletes rows by id. Metadata rows go with them through
// the FK cascade. Physical files are never touched here.
func (d *Database) DeleteAssets(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	d.Lock.Lock()
	defer d.Lock.Unlock()

	if d.DryRun {
		d.Logger.Info().Uints("ids", ids).Msg("would delete asset rows (dry run)")
		return int64(len(ids)), nil
	}

	var affected int64
	err := d.Cli.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id IN ?", ids).Delete(&Asset{})
		if res.Error != nil {
			return fmt.Errorf("could not delete asset rows: %w", res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// SetPoster records the generated poster frame filename on a video.
func (d *Database) SetPoster(ctx context.Context, assetID uint, posterFilename string) error {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	res := d.Cli.WithContext(ctx).
		Model(&VideoMeta{}).
		Where("asset_id = ?", assetID).
		Update("poster_filename", posterFilename)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: video %d", asset.ErrNotFound, assetID)
	}
	return nil
}

func (d *Database) SetTranscodeStatus(ctx context.Context, assetID uint, status string) error {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	res := d.Cli.WithContext(ctx).
		Model(&VideoMeta{}).
		Where("asset_id = ?", assetID).
		Update("transcode_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: video %d", asset.ErrNotFound, assetID)
	}
	return nil
}

// ArticleAssets returns the assets of one kind bound to an article, with
// their metadata. Images come cover-first, then oldest first.
func (d *Database) ArticleAssets(ctx context.Context, articleID uint, kind asset.Kind) ([]Asset, error) {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	var records []Asset
	q := d.Cli.WithContext(ctx).
		Where("asset.article_id = ? AND asset.kind = ?", articleID, kind)

	switch kind {
	case asset.Image:
		q = q.
			Joins("LEFT JOIN image_meta ON image_meta.asset_id = asset.id").
			Order("image_meta.is_cover DESC, asset.created_at ASC").
			Preload("Image")
	case asset.Video:
		q = q.
			Order("asset.created_at ASC").
			Preload("Video")
	default:
		return nil, fmt.Errorf("%w: %q", asset.ErrUnknownKind, kind)
	}

	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
