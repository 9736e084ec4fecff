package director

import (
	"image"
	"math/rand"

	"github.com/ivlev/photowall/internal/anim"
	"github.com/ivlev/photowall/internal/config"
	"github.com/ivlev/photowall/internal/layout"
	"github.com/ivlev/photowall/internal/render"
	"github.com/ivlev/photowall/internal/slide"
)

// RevealState состояние оркестраторов Linear и Spiral.
type RevealState int

const (
	Displaying RevealState = iota
	Transitioning
	Cleanup
	Finished
)

func (s RevealState) String() string {
	switch s {
	case Displaying:
		return "displaying"
	case Transitioning:
		return "transitioning"
	case Cleanup:
		return "cleanup"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Границы случайной фоновой позиции для линейного варианта.
const (
	scatterMin      = 0.05
	scatterSpan     = 0.90
	scatterScaleMin = 0.20
	scatterScaleMax = 0.30
	scatterRotation = 15.0
)

// Reveal показывает слайды по одному в порядке индекса: крупно в центре,
// затем уводит на фон. Когда все на фоне, скрывает их в обратном порядке.
type Reveal struct {
	name   string
	stage  config.Stage
	slides []*slide.Slide
	names  []string
	cells  []layout.GridAssignment

	state        RevealState
	current      int
	timer        float32
	cleanupIndex int
	hidden       []int
}

func newReveal(name string, items []Item, stage config.Stage) *Reveal {
	r := &Reveal{
		name:   name,
		stage:  stage,
		slides: make([]*slide.Slide, len(items)),
		names:  make([]string, len(items)),
	}
	for i, it := range items {
		r.slides[i] = slide.New(it.Texture, stage)
		r.names[i] = it.Name
	}
	if len(items) == 0 {
		r.state = Finished
	}
	return r
}

// NewLinear раскладывает слайды по случайным фоновым позициям.
func NewLinear(items []Item, stage config.Stage, rng *rand.Rand) *Reveal {
	r := newReveal(config.VariantLinear, items, stage)
	for _, s := range r.slides {
		base := s.Prominent().Scale
		s.SetTarget(slide.Transform{
			X:        scatterMin + rng.Float32()*scatterSpan,
			Y:        scatterMin + rng.Float32()*scatterSpan,
			Scale:    base * (scatterScaleMin + rng.Float32()*(scatterScaleMax-scatterScaleMin)),
			Rotation: (rng.Float32()*2 - 1) * scatterRotation,
		})
	}
	return r
}

// NewSpiral раскладывает слайды мозаикой по спирали. Раскладка считается
// один раз до начала анимации.
func NewSpiral(items []Item, stage config.Stage, rng *rand.Rand) *Reveal {
	r := newReveal(config.VariantSpiral, items, stage)

	sizes := make([]image.Point, len(r.slides))
	for i, s := range r.slides {
		w, h := s.TextureSize()
		sizes[i] = image.Pt(w, h)
	}
	r.cells = layout.Spiral{Stage: stage, Rand: rng}.Compute(sizes)
	for _, a := range r.cells {
		r.slides[a.SlideIndex].SetTarget(a.Final)
	}
	return r
}

func (r *Reveal) Name() string { return r.name }

func (r *Reveal) Tick(dt float32) bool {
	if r.state == Finished {
		return false
	}

	for _, s := range r.slides {
		s.Update(dt)
	}

	switch r.state {
	case Displaying:
		r.timer += dt
		if anim.Reached(r.timer, r.stage.DisplayDuration) {
			r.slides[r.current].StartBackgroundAnimation()
			r.state = Transitioning
		}

	case Transitioning:
		if r.slides[r.current].Animating() {
			break
		}
		r.current++
		r.timer = 0
		if r.current < len(r.slides) {
			r.state = Displaying
		} else {
			r.state = Cleanup
			r.cleanupIndex = len(r.slides) - 1
		}

	case Cleanup:
		r.timer += dt
		if !anim.Reached(r.timer, r.stage.CleanupInterval) {
			break
		}
		r.slides[r.cleanupIndex].Hide()
		r.hidden = append(r.hidden, r.cleanupIndex)
		r.timer = 0
		if r.cleanupIndex == 0 {
			r.state = Finished
		} else {
			r.cleanupIndex--
		}
	}
	return true
}

// Draw рисует слайды, уже ушедшие на фон, и текущий, пока он показывается
// или летит. Слайды с большим индексом не рисуются.
func (r *Reveal) Draw(c render.Canvas) {
	for i, s := range r.slides {
		if i > r.current {
			break
		}
		if i == r.current && r.state != Displaying && r.state != Transitioning {
			continue
		}
		s.Draw(c)
	}
}

func (r *Reveal) State() RevealState { return r.state }
func (r *Reveal) Current() int       { return r.current }

// HiddenOrder индексы в порядке скрытия на этапе очистки.
func (r *Reveal) HiddenOrder() []int {
	return append([]int(nil), r.hidden...)
}

func (r *Reveal) Assignments() []layout.GridAssignment {
	return r.cells
}

func (r *Reveal) Slides() []*slide.Slide {
	return r.slides
}

func (r *Reveal) Entries() []ManifestSlide {
	out := make([]ManifestSlide, len(r.slides))
	for i, s := range r.slides {
		t := s.Target()
		out[i] = ManifestSlide{Index: i, Source: r.names[i], Final: &t}
	}
	for _, a := range r.cells {
		cell := a.Cell
		out[a.SlideIndex].Cell = &cell
	}
	return out
}

func (r *Reveal) Close() {
	for _, s := range r.slides {
		s.Release()
	}
}
