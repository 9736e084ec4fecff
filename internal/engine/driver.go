package engine

import (
	"context"
	"fmt"

	"github.com/ivlev/photowall/internal/config"
	"github.com/ivlev/photowall/internal/director"
	"github.com/ivlev/photowall/internal/render"
	"github.com/ivlev/photowall/internal/video"
)

// overlayMargin отступ QR-кода от края кадра, пиксели.
const overlayMargin = 24

// FrameDriver крутит цикл с фиксированным шагом: один тик = один кадр.
// Время симуляции не зависит от реального, поэтому длина ролика
// определяется только числом слайдов и длительностями фаз.
type FrameDriver struct {
	Orchestrator director.Orchestrator
	Canvas       render.Canvas
	Sink         video.Sink
	Stage        config.Stage

	// Overlay рисуется поверх каждого кадра в правом нижнем углу.
	Overlay *render.Texture

	// Progress вызывается каждые ProgressEvery кадров.
	Progress      func(frame int)
	ProgressEvery int
}

// Run возвращает число записанных кадров. Ошибка записи прерывает цикл
// сразу. Отмена ctx проверяется между кадрами; закрыть Sink должен
// вызывающий.
func (d *FrameDriver) Run(ctx context.Context) (int, error) {
	dt := d.Stage.FrameTime()
	w, h := d.Canvas.Size()

	var overlay render.DrawParams
	if d.Overlay != nil {
		overlay = render.OverlayParams(d.Overlay, w, h, overlayMargin)
	}

	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			return frames, err
		}
		if !d.Orchestrator.Tick(dt) {
			return frames, nil
		}

		d.Canvas.Clear(render.Black)
		d.Orchestrator.Draw(d.Canvas)
		if d.Overlay != nil {
			d.Canvas.DrawTexture(d.Overlay, overlay)
		}

		if err := d.Sink.WriteFrame(d.Canvas.Frame()); err != nil {
			return frames, fmt.Errorf("запись кадра %d: %w", frames+1, err)
		}
		frames++

		if d.Progress != nil && d.ProgressEvery > 0 && frames%d.ProgressEvery == 0 {
			d.Progress(frames)
		}
	}
}
