package variant

import (
	"image"

	"golang.org/x/image/draw"
)

// Resizer scales an image down to a target width, keeping proportions.
// The default implementation can be swapped by the embedding application.
type Resizer interface {
	Resize(src image.Image, width int) image.Image
}

func NewResizer() Resizer {
	return catmullRomResizer{}
}

type catmullRomResizer struct{}

func (catmullRomResizer) Resize(src image.Image, width int) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() <= width {
		return src
	}

	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
