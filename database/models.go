package database

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/stupid-simple/assetkeeper/asset"
)

// Article exists here only as the FK target of Asset.ArticleID. Everything
// else about articles (content, tags, comments) lives outside this module.
type Article struct {
	ID        uint `gorm:"primaryKey"`
	AuthorID  uint `gorm:"index"`
	CreatedAt time.Time
}

// Asset is one uploaded binary object. ArticleID is NULL until the asset is
// published with an article; only association, article deletion and the
// orphan collector ever mutate a row after creation.
type Asset struct {
	ID        uint       `gorm:"primaryKey"`
	OwnerID   uint       `gorm:"index"`
	Filename  string     `gorm:"uniqueIndex"`
	MimeType  string
	Size      int64
	Hash      int64
	Kind      asset.Kind `gorm:"index"`
	ArticleID *uint      `gorm:"index"`
	Article   *Article   `gorm:"foreignKey:ArticleID"`
	CreatedAt time.Time

	Image *ImageMeta `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
	Video *VideoMeta `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
}

func (a Asset) MarshalZerologObject(e *zerolog.Event) {
	e.Uint("id", a.ID)
	e.Str("filename", a.Filename)
	e.Str("kind", a.Kind.String())
	e.Int64("size", a.Size)
	if a.ArticleID != nil {
		e.Uint("article_id", *a.ArticleID)
	}
}

// Bound reports whether the asset is currently published with an article.
func (a Asset) Bound() bool {
	return a.ArticleID != nil
}

type ImageMeta struct {
	AssetID uint `gorm:"primaryKey"`
	Width   int
	Height  int
	IsCover bool `gorm:"not null;default:false"`
}

type VideoMeta struct {
	AssetID         uint `gorm:"primaryKey"`
	PosterFilename  *string
	Duration        float64
	Width           int
	Height          int
	Bitrate         int
	Format          string
	TranscodeStatus string `gorm:"default:pending"`
}
