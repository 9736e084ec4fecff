package director

import (
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/ivlev/photowall/internal/anim"
	"github.com/ivlev/photowall/internal/config"
	"github.com/ivlev/photowall/internal/render"
)

// Orchestrator решает на каждом тике, какие слайды анимируются и когда
// последовательность закончена. Единственный компонент, знающий обо всех
// слайдах сразу.
type Orchestrator interface {
	Name() string
	// Tick продвигает анимацию на dt. false означает, что кадр не нужен
	// и рендер окончен.
	Tick(dt float32) bool
	Draw(c render.Canvas)
	Entries() []ManifestSlide
	// Close освобождает текстуры всех слайдов.
	Close()
}

// Item загруженное изображение вместе с найденным объектом.
type Item struct {
	Name       string
	Texture    *render.Texture
	Subject    image.Rectangle
	HasSubject bool
}

// New собирает оркестратор выбранного варианта.
func New(variant string, items []Item, stage config.Stage, rng *rand.Rand) (Orchestrator, error) {
	switch variant {
	case config.VariantLinear:
		return NewLinear(items, stage, rng), nil
	case config.VariantSpiral:
		return NewSpiral(items, stage, rng), nil
	case config.VariantPushBox:
		return NewPushBox(items, stage), nil
	default:
		return nil, fmt.Errorf("неизвестный вариант анимации: %q", variant)
	}
}

// phaseFrames число тиков, за которое таймер фазы достигает d. Фаза длится
// минимум один тик.
func phaseFrames(d float32, stage config.Stage) int {
	n := int(math.Ceil((float64(d) - float64(anim.Tolerance)) * float64(stage.FPS)))
	if n < 1 {
		n = 1
	}
	return n
}

// ExpectedFrames возвращает точное число кадров, которое выдаст вариант для
// n слайдов. Используется для прогресса и проверяется тестами.
func ExpectedFrames(variant string, n int, stage config.Stage) int {
	if n <= 0 || stage.FPS <= 0 {
		return 0
	}
	d := phaseFrames(stage.DisplayDuration, stage)
	a := phaseFrames(stage.AnimationDuration, stage)

	switch variant {
	case config.VariantPushBox:
		// Последний тик снимает последний слайд и кадра не даёт.
		return (n-1)*(3*a+d) + 4*a + d - 1
	default:
		c := phaseFrames(stage.CleanupInterval, stage)
		return n*(d+a) + n*c
	}
}

func rectangle(r image.Rectangle) *Rectangle {
	return &Rectangle{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}
