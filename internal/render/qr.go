package render

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// NewQRTexture рендерит QR-код с текстом в квадратную текстуру size×size.
func NewQRTexture(text string, size int) (*Texture, error) {
	if text == "" {
		return nil, fmt.Errorf("пустой текст для QR-кода")
	}
	if size <= 0 {
		return nil, fmt.Errorf("некорректный размер QR-кода: %d", size)
	}
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации QR-кода: %w", err)
	}
	return NewTexture(q.Image(size)), nil
}

// OverlayParams размещает квадратную текстуру в правом нижнем углу кадра.
func OverlayParams(tex *Texture, canvasW, canvasH int, margin float32) DrawParams {
	w, h := float32(tex.Width()), float32(tex.Height())
	return DrawParams{
		Src:     FullRect(tex),
		CenterX: float32(canvasW) - margin - w/2,
		CenterY: float32(canvasH) - margin - h/2,
		Width:   w,
		Height:  h,
	}
}
