package database

import (
	"context"
	"time"

	"github.com/stupid-simple/assetkeeper/asset"
)

// FindOrphans returns assets of one kind that are unbound and were created
// before cutoff, oldest first. Images whose filename is referenced as some
// video's poster are excluded: posters belong to their video's lifecycle and
// must never be swept on their own.
func (d *Database) FindOrphans(ctx context.Context, kind asset.Kind, cutoff time.Time) ([]Asset, error) {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	q := d.Cli.WithContext(ctx).
		Where("kind = ? AND article_id IS NULL AND created_at < ?", kind, cutoff)

	if kind == asset.Image {
		posterNames := d.Cli.Model(&VideoMeta{}).
			Select("poster_filename").
			Where("poster_filename IS NOT NULL")
		q = q.Where("filename NOT IN (?)", posterNames)
	}

	var records []Asset
	if err := q.Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
