package asset

import (
	"errors"
	"fmt"
)

// Kind is the stored media category of an asset. It never changes after the
// asset row is created.
type Kind string

const (
	Image Kind = "image"
	Video Kind = "video"
)

var Kinds = []Kind{Image, Video}

var (
	ErrUnknownKind     = errors.New("unknown asset kind")
	ErrNotFound        = errors.New("asset not found")
	ErrInvalidAssetID  = errors.New("invalid asset id")
	ErrTooManyVideos   = errors.New("too many videos for one article")
	ErrNotAnImage      = errors.New("cover asset is not an image")
	ErrMaxSizeExceeded = errors.New("maximum upload size exceeded")
)

func (k Kind) String() string {
	return string(k)
}

func (k Kind) Valid() bool {
	return k == Image || k == Video
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Transcode status values carried on video metadata. Informational only:
// nothing in the lifecycle blocks on them.
const (
	TranscodePending    = "pending"
	TranscodeProcessing = "processing"
	TranscodeCompleted  = "completed"
	TranscodeFailed     = "failed"
)
