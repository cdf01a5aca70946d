package database

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/stupid-simple/assetkeeper/asset"
)

type AssociationResult struct {
	// Bound is the number of assets now attached to the article.
	Bound int
	// Unbound lists ids from the article's previous set that are no longer
	// attached. Informational: the orphan collector is the authoritative
	// backstop for reclaiming them.
	Unbound []uint
}

// Associate rebinds the article's asset set of one kind in a single
// transaction: the old set is unbound, the requested set bound, and for
// images the cover flag moved to coverID. Any invalid id aborts the whole
// operation; no asset is left half-bound. Concurrent calls for the same
// article resolve to last writer wins.
func (d *Database) Associate(ctx context.Context, articleID uint, kind asset.Kind, assetIDs []uint, coverID *uint) (*AssociationResult, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", asset.ErrUnknownKind, kind)
	}

	ids := dedupe(assetIDs)
	if coverID != nil {
		if kind != asset.Image {
			return nil, fmt.Errorf("%w: cover on %s association", asset.ErrNotAnImage, kind)
		}
		if !slices.Contains(ids, *coverID) {
			return nil, fmt.Errorf("%w: cover %d not in requested set", asset.ErrInvalidAssetID, *coverID)
		}
	}

	d.Lock.Lock()
	defer d.Lock.Unlock()

	result := AssociationResult{}
	err := d.Cli.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var oldIDs []uint
		err := tx.Model(&Asset{}).
			Where("article_id = ? AND kind = ?", articleID, kind).
			Pluck("id", &oldIDs).Error
		if err != nil {
			return fmt.Errorf("could not read current set: %w", err)
		}

		err = tx.Model(&Asset{}).
			Where("article_id = ? AND kind = ?", articleID, kind).
			Update("article_id", nil).Error
		if err != nil {
			return fmt.Errorf("could not unbind current set: %w", err)
		}

		if len(ids) > 0 {
			res := tx.Model(&Asset{}).
				Where("id IN ? AND kind = ?", ids, kind).
				Update("article_id", articleID)
			if res.Error != nil {
				return fmt.Errorf("could not bind assets: %w", res.Error)
			}
			if res.RowsAffected != int64(len(ids)) {
				return fmt.Errorf("%w: bound %d of %d requested",
					asset.ErrInvalidAssetID, res.RowsAffected, len(ids))
			}
		}

		if kind == asset.Image {
			// Clear every cover flag scoped to this article after the new set
			// is bound, so a rebound image cannot smuggle in a stale flag from
			// a previous article. The clear+set pair being article-scoped is
			// what keeps at most one cover per article even under concurrent
			// association of different articles.
			boundImages := tx.Model(&Asset{}).
				Select("id").
				Where("article_id = ? AND kind = ?", articleID, asset.Image)
			err := tx.Model(&ImageMeta{}).
				Where("asset_id IN (?) AND is_cover = ?", boundImages, true).
				Update("is_cover", false).Error
			if err != nil {
				return fmt.Errorf("could not clear cover flags: %w", err)
			}
		}

		if coverID != nil {
			res := tx.Model(&ImageMeta{}).
				Where("asset_id = ?", *coverID).
				Update("is_cover", true)
			if res.Error != nil {
				return fmt.Errorf("could not set cover: %w", res.Error)
			}
			if res.RowsAffected != 1 {
				return fmt.Errorf("%w: cover %d", asset.ErrInvalidAssetID, *coverID)
			}
		}

		result.Bound = len(ids)
		for _, id := range oldIDs {
			if !slices.Contains(ids, id) {
				result.Unbound = append(result.Unbound, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.Logger.Info().
		Uint("article_id", articleID).
		Str("kind", kind.String()).
		Int("bound", result.Bound).
		Uints("unbound", result.Unbound).
		Msg("associated assets")
	return &result, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
