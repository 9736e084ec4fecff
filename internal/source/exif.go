package source

import (
	"errors"
	"image"
	"io"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Значения тега Orientation, которые требуют поворота.
const (
	OrientRotate180 = 3
	OrientRotate90  = 6 // по часовой
	OrientRotate270 = 8 // против часовой
)

// ReadOrientation читает тег Orientation. Отсутствие EXIF или тега даёт 1.
func ReadOrientation(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 1, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	// Файл закончился раньше, чем нашёлся сегмент APP1: EXIF нет
	if errors.Is(err, io.EOF) {
		return 1, nil
	}
	if err != nil && exif.IsCriticalError(err) {
		return 1, err
	}
	tag, err := x.Get(exif.Orientation)
	if exif.IsTagNotPresentError(err) {
		return 1, nil
	}
	if err != nil {
		return 1, err
	}
	v, err := tag.Int(0)
	if err != nil {
		return 1, err
	}
	return v, nil
}

// Orient поворачивает изображение по значению EXIF. Остальные значения
// возвращают исходник без изменений.
func Orient(img image.Image, orientation int) image.Image {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	mx, my := float64(b.Min.X), float64(b.Min.Y)

	var m f64.Aff3
	var size image.Point
	switch orientation {
	case OrientRotate180:
		m = f64.Aff3{-1, 0, w + mx, 0, -1, h + my}
		size = image.Pt(b.Dx(), b.Dy())
	case OrientRotate90:
		m = f64.Aff3{0, -1, h + my, 1, 0, -mx}
		size = image.Pt(b.Dy(), b.Dx())
	case OrientRotate270:
		m = f64.Aff3{0, 1, -my, -1, 0, w + mx}
		size = image.Pt(b.Dy(), b.Dx())
	default:
		return img
	}

	dst := image.NewRGBA(image.Rectangle{Max: size})
	xdraw.NearestNeighbor.Transform(dst, m, img, b, xdraw.Src, nil)
	return dst
}
