package render

import "image/color"

// DrawCall одна запись RecordingCanvas.
type DrawCall struct {
	Texture *Texture
	Params  DrawParams
}

// RecordingCanvas запоминает вызовы отрисовки без растеризации.
// Используется в тестах оркестраторов и при холостом прогоне.
type RecordingCanvas struct {
	W, H   int
	Clears int
	Calls  []DrawCall
	pix    []byte
}

func NewRecordingCanvas(w, h int) *RecordingCanvas {
	return &RecordingCanvas{W: w, H: h}
}

func (r *RecordingCanvas) Size() (int, int) { return r.W, r.H }

func (r *RecordingCanvas) Clear(color.RGBA) {
	r.Clears++
	r.Calls = r.Calls[:0]
}

func (r *RecordingCanvas) DrawTexture(tex *Texture, p DrawParams) {
	r.Calls = append(r.Calls, DrawCall{Texture: tex, Params: p})
}

// Frame возвращает пустой кадр нужного размера: пиксели не рисуются.
func (r *RecordingCanvas) Frame() Frame {
	if len(r.pix) != r.W*r.H*4 {
		r.pix = make([]byte, r.W*r.H*4)
	}
	return Frame{Pix: r.pix, Width: r.W, Height: r.H, Stride: r.W * 4}
}
