package slide

import (
	"image"

	"github.com/ivlev/photowall/internal/anim"
	"github.com/ivlev/photowall/internal/config"
	"github.com/ivlev/photowall/internal/render"
)

// BoxState фаза слайда карусели. Переходы только вперёд.
type BoxState int

const (
	Entering BoxState = iota
	ZoomingIn
	Displaying
	ZoomingOut
	Exiting
)

func (s BoxState) String() string {
	switch s {
	case Entering:
		return "entering"
	case ZoomingIn:
		return "zooming-in"
	case Displaying:
		return "displaying"
	case ZoomingOut:
		return "zooming-out"
	case Exiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// Границы масштаба кадрирования, когда известен объект на снимке.
const (
	MinSubjectCrop float32 = 0.7
	MaxSubjectCrop float32 = 1.0
)

// Crop видимая часть изображения: доля от размера и центр в долях [0,1].
type Crop struct {
	Scale   float32 `yaml:"scale"`
	CenterX float32 `yaml:"cx"`
	CenterY float32 `yaml:"cy"`
}

// FullCrop вся картинка без увеличения.
var FullCrop = Crop{Scale: 1, CenterX: 0.5, CenterY: 0.5}

// SourceRect переводит кадрирование в тексели текстуры w×h.
func (c Crop) SourceRect(w, h int) render.Rect {
	fw, fh := float32(w), float32(h)
	return render.Rect{
		X: c.CenterX*fw - c.Scale*fw/2,
		Y: c.CenterY*fh - c.Scale*fh/2,
		W: c.Scale * fw,
		H: c.Scale * fh,
	}
}

// SubjectCrop строит целевое кадрирование Ken Burns по рамке объекта.
// Масштаб ограничен [0.7, 1.0], центр сдвигается так, чтобы окно не
// выходило за границы изображения.
func SubjectCrop(subject image.Rectangle, imgW, imgH int) Crop {
	if imgW <= 0 || imgH <= 0 || subject.Empty() {
		return FullCrop
	}
	fw, fh := float32(imgW), float32(imgH)

	scale := float32(subject.Dx()) / fw
	if v := float32(subject.Dy()) / fh; v > scale {
		scale = v
	}
	scale = anim.Clamp(scale, MinSubjectCrop, MaxSubjectCrop)

	half := scale / 2
	cx := (float32(subject.Min.X) + float32(subject.Dx())/2) / fw
	cy := (float32(subject.Min.Y) + float32(subject.Dy())/2) / fh
	return Crop{
		Scale:   scale,
		CenterX: anim.Clamp(cx, half, 1-half),
		CenterY: anim.Clamp(cy, half, 1-half),
	}
}

// BoxSlide слайд карусели: въезд слева, приближение, показ с эффектом
// Ken Burns, отдаление, выезд вправо.
type BoxSlide struct {
	tex   *render.Texture
	stage config.Stage

	state     BoxState
	visible   bool
	animating bool
	finished  bool
	elapsed   float32

	transform  Transform
	finalScale float32
	smallScale float32

	crop       Crop
	cropTarget Crop
	subject    image.Rectangle
	hasSubject bool

	a, b, c *anim.Tween
}

func NewBox(tex *render.Texture, stage config.Stage) *BoxSlide {
	final := ProminentScale(tex.Width(), tex.Height(), stage)
	end := stage.KenBurnsEndScale
	if end <= 0 || end > 1 {
		end = 1
	}
	return &BoxSlide{
		tex:        tex,
		stage:      stage,
		state:      Entering,
		transform:  Transform{X: -0.5, Y: 0.5, Scale: final / 2},
		finalScale: final,
		smallScale: final / 2,
		crop:       FullCrop,
		cropTarget: Crop{Scale: end, CenterX: 0.5, CenterY: 0.5},
	}
}

// SetSubject задаёт рамку объекта в пикселях текстуры. При ok == false
// используется кадрирование по центру.
func (b *BoxSlide) SetSubject(subject image.Rectangle, ok bool) {
	if !ok || subject.Empty() {
		return
	}
	b.subject = subject
	b.hasSubject = true
	b.cropTarget = SubjectCrop(subject, b.tex.Width(), b.tex.Height())
}

// Activate делает слайд видимым и запускает фазу въезда.
func (b *BoxSlide) Activate() {
	if b.visible || b.finished {
		return
	}
	b.visible = true
	b.animating = true
	b.enter(Entering)
}

func (b *BoxSlide) enter(st BoxState) {
	b.state = st
	b.elapsed = 0
	b.a, b.b, b.c = nil, nil, nil

	d := b.stage.AnimationDuration
	switch st {
	case Entering:
		b.a = anim.NewTween(anim.CubicOut, -0.5, 0.5, d)
	case ZoomingIn:
		b.transform.X = 0.5
		b.a = anim.NewTween(anim.CubicOut, b.smallScale, b.finalScale, d)
	case Displaying:
		b.transform.Scale = b.finalScale
		dd := b.stage.DisplayDuration
		b.a = anim.NewTween(anim.Linear, FullCrop.Scale, b.cropTarget.Scale, dd)
		b.b = anim.NewTween(anim.Linear, FullCrop.CenterX, b.cropTarget.CenterX, dd)
		b.c = anim.NewTween(anim.Linear, FullCrop.CenterY, b.cropTarget.CenterY, dd)
	case ZoomingOut:
		b.crop = b.cropTarget
		b.a = anim.NewTween(anim.CubicOut, b.finalScale, b.smallScale, d)
	case Exiting:
		b.transform.Scale = b.smallScale
		b.a = anim.NewTween(anim.CubicOut, 0.5, 1.5, d)
	}
}

func (b *BoxSlide) phaseDuration() float32 {
	if b.state == Displaying {
		return b.stage.DisplayDuration
	}
	return b.stage.AnimationDuration
}

func (b *BoxSlide) Update(dt float32) {
	if !b.animating {
		return
	}
	if dt > 0 {
		b.elapsed += dt
	}

	switch b.state {
	case Entering, Exiting:
		b.transform.X = b.a.Apply(dt)
	case ZoomingIn, ZoomingOut:
		b.transform.Scale = b.a.Apply(dt)
	case Displaying:
		b.crop = Crop{Scale: b.a.Apply(dt), CenterX: b.b.Apply(dt), CenterY: b.c.Apply(dt)}
	}

	if !anim.Reached(b.elapsed, b.phaseDuration()) {
		return
	}
	if b.state == Exiting {
		b.transform.X = 1.5
		b.visible = false
		b.animating = false
		b.finished = true
		return
	}
	b.enter(b.state + 1)
}

func (b *BoxSlide) Draw(c render.Canvas) {
	if !b.visible || b.tex.Released() {
		return
	}
	src := b.crop.SourceRect(b.tex.Width(), b.tex.Height())
	c.DrawTexture(b.tex, placement(b.tex, src, b.transform, b.stage))
}

func (b *BoxSlide) State() BoxState      { return b.state }
func (b *BoxSlide) Visible() bool        { return b.visible }
func (b *BoxSlide) Animating() bool      { return b.animating }
func (b *BoxSlide) Finished() bool       { return b.finished }
func (b *BoxSlide) Transform() Transform { return b.transform }
func (b *BoxSlide) Crop() Crop           { return b.crop }
func (b *BoxSlide) CropTarget() Crop     { return b.cropTarget }

func (b *BoxSlide) Subject() (image.Rectangle, bool) {
	return b.subject, b.hasSubject
}

func (b *BoxSlide) Release() {
	b.tex.Release()
}
