package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Rect is a source crop in texel coordinates.
type Rect struct {
	X, Y, W, H float32
}

// FullRect covers the whole texture.
func FullRect(tex *Texture) Rect {
	return Rect{W: float32(tex.Width()), H: float32(tex.Height())}
}

// DrawParams places a texture crop on the canvas: the crop is stretched to
// Width x Height pixels, centered at (CenterX, CenterY) and rotated clockwise
// by Rotation degrees around that center.
type DrawParams struct {
	Src      Rect
	CenterX  float32
	CenterY  float32
	Width    float32
	Height   float32
	Rotation float32
}

// Frame is one finished output image. Rows are stored top-down unless
// BottomUp is set.
type Frame struct {
	Pix      []byte
	Width    int
	Height   int
	Stride   int
	BottomUp bool
}

// Black is the background every frame starts from.
var Black = color.RGBA{A: 255}

// Canvas is the offscreen render target the orchestrators draw into.
type Canvas interface {
	Size() (w, h int)
	Clear(c color.RGBA)
	DrawTexture(tex *Texture, p DrawParams)
	Frame() Frame
}

// SoftwareCanvas rasterizes on the CPU with an affine bilinear transformer.
type SoftwareCanvas struct {
	img    *image.RGBA
	interp xdraw.Transformer
}

func NewSoftwareCanvas(w, h int) *SoftwareCanvas {
	return &SoftwareCanvas{
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
		interp: xdraw.ApproxBiLinear,
	}
}

// WithQuality switches to the slower Catmull-Rom kernel.
func (c *SoftwareCanvas) WithQuality() *SoftwareCanvas {
	c.interp = xdraw.CatmullRom
	return c
}

func (c *SoftwareCanvas) Size() (int, int) {
	return c.img.Rect.Dx(), c.img.Rect.Dy()
}

func (c *SoftwareCanvas) Image() *image.RGBA {
	return c.img
}

func (c *SoftwareCanvas) Clear(col color.RGBA) {
	draw.Draw(c.img, c.img.Rect, &image.Uniform{C: col}, image.Point{}, draw.Src)
}

func (c *SoftwareCanvas) DrawTexture(tex *Texture, p DrawParams) {
	if tex.Released() || p.Width <= 0 || p.Height <= 0 || p.Src.W <= 0 || p.Src.H <= 0 {
		return
	}

	sr := image.Rect(
		int(math.Floor(float64(p.Src.X))),
		int(math.Floor(float64(p.Src.Y))),
		int(math.Ceil(float64(p.Src.X+p.Src.W))),
		int(math.Ceil(float64(p.Src.Y+p.Src.H))),
	).Intersect(tex.img.Rect)
	if sr.Empty() {
		return
	}

	c.interp.Transform(c.img, Affine(p), tex.img, sr, draw.Over, nil)
}

func (c *SoftwareCanvas) Frame() Frame {
	w, h := c.Size()
	return Frame{Pix: c.img.Pix, Width: w, Height: h, Stride: c.img.Stride}
}

// Affine builds the source-to-destination matrix for p: move the crop center
// to the origin, scale to the destination size, rotate, then translate to
// the destination center.
func Affine(p DrawParams) f64.Aff3 {
	kx := float64(p.Width) / float64(p.Src.W)
	ky := float64(p.Height) / float64(p.Src.H)
	rad := float64(p.Rotation) * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	scx := float64(p.Src.X) + float64(p.Src.W)/2
	scy := float64(p.Src.Y) + float64(p.Src.H)/2
	dcx, dcy := float64(p.CenterX), float64(p.CenterY)

	a, b := cos*kx, -sin*ky
	d, e := sin*kx, cos*ky
	return f64.Aff3{
		a, b, dcx - a*scx - b*scy,
		d, e, dcy - d*scx - e*scy,
	}
}
