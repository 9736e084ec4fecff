package render

import (
	"image"
	"image/draw"

	"github.com/ivlev/photowall/internal/system"
)

// Texture is an owned RGBA pixel buffer drawn by a Canvas. The owner must
// call Release once the texture is no longer drawn.
type Texture struct {
	img *image.RGBA
}

// NewTexture copies img into a pooled RGBA buffer with origin (0,0).
func NewTexture(img image.Image) *Texture {
	b := img.Bounds()
	rgba := system.GetImage(b.Dx(), b.Dy())
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return &Texture{img: rgba}
}

func (t *Texture) Width() int {
	if t == nil || t.img == nil {
		return 0
	}
	return t.img.Rect.Dx()
}

func (t *Texture) Height() int {
	if t == nil || t.img == nil {
		return 0
	}
	return t.img.Rect.Dy()
}

func (t *Texture) Image() *image.RGBA {
	return t.img
}

// Bytes returns the memory held by the texture.
func (t *Texture) Bytes() uint64 {
	if t == nil || t.img == nil {
		return 0
	}
	return uint64(len(t.img.Pix))
}

// Release returns the buffer to the pool. Calling it twice is safe.
func (t *Texture) Release() {
	if t == nil || t.img == nil {
		return
	}
	system.PutImage(t.img)
	t.img = nil
}

func (t *Texture) Released() bool {
	return t == nil || t.img == nil
}
