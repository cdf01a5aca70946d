package asset

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Derived variant suffixes. Stored assets already on disk follow these
// conventions, so they must not change.
const (
	thumbnailSuffix = "-small"
	posterSuffix    = "-poster.jpg"
)

// NewName returns a fresh stored filename for an upload, keeping only the
// extension of the original name. Names derive from the upload timestamp.
func NewName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + ext
}

// Stem returns the filename without its extension.
func Stem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// ThumbnailName returns the name of the small image variant: <stem>-small.<ext>.
func ThumbnailName(filename string) string {
	return Stem(filename) + thumbnailSuffix + filepath.Ext(filename)
}

// PosterName returns the name of the video poster frame: <stem>-poster.jpg.
func PosterName(filename string) string {
	return Stem(filename) + posterSuffix
}

// VariantName maps a variant label to its physical filename. An empty label
// means the original file.
func VariantName(filename string, variant string) (string, bool) {
	switch variant {
	case "":
		return filename, true
	case "small":
		return ThumbnailName(filename), true
	case "poster":
		return PosterName(filename), true
	default:
		return "", false
	}
}
