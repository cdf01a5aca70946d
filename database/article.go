package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/stupid-simple/assetkeeper/asset"
)

// RemovedFile names a physical file left behind after its asset row was
// deleted. Poster is set for videos that had a generated poster frame.
type RemovedFile struct {
	Kind     asset.Kind
	Filename string
	Poster   string
}

// DeleteArticleAssets detaches and deletes every asset row bound to the
// article, then the article row itself, in one transaction. It returns the
// filenames that now have no owning rows; deleting those physical files is
// the caller's job and must happen only after this commits.
func (d *Database) DeleteArticleAssets(ctx context.Context, articleID uint) ([]RemovedFile, error) {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	var removed []RemovedFile
	err := d.Cli.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var imageNames []string
		err := tx.Model(&Asset{}).
			Where("article_id = ? AND kind = ?", articleID, asset.Image).
			Pluck("filename", &imageNames).Error
		if err != nil {
			return fmt.Errorf("could not list article images: %w", err)
		}
		for _, name := range imageNames {
			removed = append(removed, RemovedFile{Kind: asset.Image, Filename: name})
		}

		var videos []struct {
			Filename       string
			PosterFilename *string
		}
		err = tx.Model(&Asset{}).
			Select("asset.filename, video_meta.poster_filename").
			Joins("LEFT JOIN video_meta ON video_meta.asset_id = asset.id").
			Where("asset.article_id = ? AND asset.kind = ?", articleID, asset.Video).
			Scan(&videos).Error
		if err != nil {
			return fmt.Errorf("could not list article videos: %w", err)
		}
		for _, v := range videos {
			rf := RemovedFile{Kind: asset.Video, Filename: v.Filename}
			if v.PosterFilename != nil {
				rf.Poster = *v.PosterFilename
			}
			removed = append(removed, rf)
		}

		if d.DryRun {
			d.Logger.Info().
				Uint("article_id", articleID).
				Int("assets", len(removed)).
				Msg("would delete article assets (dry run)")
			return nil
		}

		if err := tx.Where("article_id = ?", articleID).Delete(&Asset{}).Error; err != nil {
			return fmt.Errorf("could not delete article assets: %w", err)
		}
		if err := tx.Where("id = ?", articleID).Delete(&Article{}).Error; err != nil {
			return fmt.Errorf("could not delete article: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.Logger.Info().
		Uint("article_id", articleID).
		Int("assets", len(removed)).
		Msg("deleted article assets")
	return removed, nil
}
