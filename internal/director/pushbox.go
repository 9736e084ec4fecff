package director

import (
	"github.com/ivlev/photowall/internal/config"
	"github.com/ivlev/photowall/internal/render"
	"github.com/ivlev/photowall/internal/slide"
)

// PushBox карусель: следующий слайд въезжает, когда текущий начинает выезд.
// На каждом тике обновляются только текущий слайд и его соседи.
type PushBox struct {
	stage   config.Stage
	slides  []*slide.BoxSlide
	names   []string
	current int
	done    bool
}

func NewPushBox(items []Item, stage config.Stage) *PushBox {
	p := &PushBox{
		stage:  stage,
		slides: make([]*slide.BoxSlide, len(items)),
		names:  make([]string, len(items)),
	}
	for i, it := range items {
		b := slide.NewBox(it.Texture, stage)
		b.SetSubject(it.Subject, it.HasSubject)
		p.slides[i] = b
		p.names[i] = it.Name
	}
	if len(p.slides) == 0 {
		p.done = true
		return p
	}
	p.slides[0].Activate()
	return p
}

func (p *PushBox) Name() string { return config.VariantPushBox }

// window границы отслеживаемых слайдов: предыдущий, текущий, следующий.
func (p *PushBox) window() (lo, hi int) {
	lo, hi = p.current-1, p.current+1
	if lo < 0 {
		lo = 0
	}
	if hi > len(p.slides)-1 {
		hi = len(p.slides) - 1
	}
	return lo, hi
}

func (p *PushBox) Tick(dt float32) bool {
	if p.done {
		return false
	}

	cur := p.slides[p.current]
	before := cur.State()

	lo, hi := p.window()
	for i := lo; i <= hi; i++ {
		p.slides[i].Update(dt)
	}

	if before == slide.ZoomingOut && cur.State() == slide.Exiting && p.current+1 < len(p.slides) {
		p.slides[p.current+1].Activate()
		p.current++
	}

	lo, hi = p.window()
	for i := lo; i <= hi; i++ {
		if p.slides[i].Animating() {
			return true
		}
	}
	p.done = true
	return false
}

func (p *PushBox) Draw(c render.Canvas) {
	if len(p.slides) == 0 {
		return
	}
	lo, hi := p.window()
	for i := lo; i <= hi; i++ {
		p.slides[i].Draw(c)
	}
}

func (p *PushBox) Current() int { return p.current }

func (p *PushBox) Slides() []*slide.BoxSlide {
	return p.slides
}

func (p *PushBox) Entries() []ManifestSlide {
	out := make([]ManifestSlide, len(p.slides))
	for i, b := range p.slides {
		crop := b.CropTarget()
		out[i] = ManifestSlide{Index: i, Source: p.names[i], Crop: &crop}
		if r, ok := b.Subject(); ok {
			out[i].Subject = rectangle(r)
		}
	}
	return out
}

func (p *PushBox) Close() {
	for _, b := range p.slides {
		b.Release()
	}
}
