package asset_test

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupid-simple/assetkeeper/asset"
)

func TestNewName(t *testing.T) {
	before := time.Now().UnixMilli()
	name := asset.NewName("Holiday Photo.JPG")
	after := time.Now().UnixMilli()

	require.True(t, strings.HasSuffix(name, ".jpg"), "extension should be kept and lowercased")

	millis, err := strconv.ParseInt(strings.TrimSuffix(name, ".jpg"), 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, millis, before)
	assert.LessOrEqual(t, millis, after)
}

func TestNewName_NoExtension(t *testing.T) {
	name := asset.NewName("raw-upload")
	_, err := strconv.ParseInt(name, 10, 64)
	assert.NoError(t, err, "name without extension should be all digits")
}

func TestThumbnailName(t *testing.T) {
	assert.Equal(t, "1686222236683-small.png", asset.ThumbnailName("1686222236683.png"))
	assert.Equal(t, "photo-small.jpg", asset.ThumbnailName("photo.jpg"))
}

func TestPosterName(t *testing.T) {
	assert.Equal(t, "1763475692261-poster.jpg", asset.PosterName("1763475692261.mp4"))
	assert.Equal(t, "clip-poster.jpg", asset.PosterName("clip.webm"))
}

func TestVariantName(t *testing.T) {
	name, ok := asset.VariantName("a.jpg", "")
	require.True(t, ok)
	assert.Equal(t, "a.jpg", name)

	name, ok = asset.VariantName("a.jpg", "small")
	require.True(t, ok)
	assert.Equal(t, "a-small.jpg", name)

	name, ok = asset.VariantName("v.mp4", "poster")
	require.True(t, ok)
	assert.Equal(t, "v-poster.jpg", name)

	_, ok = asset.VariantName("a.jpg", "large")
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	k, err := asset.ParseKind("image")
	require.NoError(t, err)
	assert.Equal(t, asset.Image, k)

	k, err = asset.ParseKind("video")
	require.NoError(t, err)
	assert.Equal(t, asset.Video, k)

	_, err = asset.ParseKind("audio")
	assert.ErrorIs(t, err, asset.ErrUnknownKind)
}
