package slide

import (
	"github.com/ivlev/photowall/internal/anim"
	"github.com/ivlev/photowall/internal/config"
	"github.com/ivlev/photowall/internal/render"
)

// Transform задаёт положение слайда в нормализованных координатах экрана,
// масштаб относительно пикселей текстуры и поворот в градусах.
type Transform struct {
	X        float32 `yaml:"x"`
	Y        float32 `yaml:"y"`
	Scale    float32 `yaml:"scale"`
	Rotation float32 `yaml:"rotation"`
}

// prominentFill доля кадра, которую занимает слайд в центре.
const prominentFill = 0.9

// ProminentScale подбирает масштаб, при котором текстура помещается в 90%
// ширины (альбомная) или высоты (портретная и квадратная) кадра.
func ProminentScale(texW, texH int, stage config.Stage) float32 {
	if texW <= 0 || texH <= 0 {
		return 1
	}
	if texW > texH {
		limit := prominentFill * float32(stage.Width)
		if float32(texW) > limit {
			return limit / float32(texW)
		}
		return 1
	}
	limit := prominentFill * float32(stage.Height)
	if float32(texH) > limit {
		return limit / float32(texH)
	}
	return 1
}

// Slide проходит путь от центра экрана к фоновой позиции.
type Slide struct {
	tex   *render.Texture
	stage config.Stage

	transform Transform
	prominent Transform
	target    Transform

	visible   bool
	animating bool
	elapsed   float32

	x, y, scale, rotation *anim.Tween
}

func New(tex *render.Texture, stage config.Stage) *Slide {
	p := Transform{
		X:     0.5,
		Y:     0.5,
		Scale: ProminentScale(tex.Width(), tex.Height(), stage),
	}
	return &Slide{
		tex:       tex,
		stage:     stage,
		transform: p,
		prominent: p,
		target:    p,
		visible:   true,
	}
}

// SetTarget задаёт фоновую позицию, к которой слайд уйдёт после показа.
func (s *Slide) SetTarget(t Transform) {
	s.target = t
}

func (s *Slide) Target() Transform {
	return s.target
}

// StartBackgroundAnimation запускает четыре независимых твина от текущего
// положения к цели по кривым сцены. Повторный вызов во время анимации
// ничего не делает.
func (s *Slide) StartBackgroundAnimation() {
	if s.animating {
		return
	}
	d := s.stage.AnimationDuration
	cur := s.transform
	pos := s.stage.PositionEasing.Or(anim.CubicOut)
	s.x = anim.NewTween(pos, cur.X, s.target.X, d)
	s.y = anim.NewTween(pos, cur.Y, s.target.Y, d)
	s.scale = anim.NewTween(s.stage.ScaleEasing.Or(anim.BackIn), cur.Scale, s.target.Scale, d)
	s.rotation = anim.NewTween(s.stage.RotationEasing.Or(anim.SineInOut), cur.Rotation, s.target.Rotation, d)
	s.elapsed = 0
	s.animating = true
}

func (s *Slide) Update(dt float32) {
	if !s.animating {
		return
	}
	if dt > 0 {
		s.elapsed += dt
	}

	s.transform = Transform{
		X:        s.x.Apply(dt),
		Y:        s.y.Apply(dt),
		Scale:    s.scale.Apply(dt),
		Rotation: s.rotation.Apply(dt),
	}

	if anim.Reached(s.elapsed, s.stage.AnimationDuration) {
		s.animating = false
		s.transform = s.target
	}
}

func (s *Slide) Draw(c render.Canvas) {
	if !s.visible || s.tex.Released() {
		return
	}
	c.DrawTexture(s.tex, placement(s.tex, render.FullRect(s.tex), s.transform, s.stage))
}

func (s *Slide) Hide()                { s.visible = false }
func (s *Slide) Visible() bool        { return s.visible }
func (s *Slide) Animating() bool      { return s.animating }
func (s *Slide) Transform() Transform { return s.transform }
func (s *Slide) Prominent() Transform { return s.prominent }

func (s *Slide) TextureSize() (int, int) {
	return s.tex.Width(), s.tex.Height()
}

// Release освобождает текстуру. Трансформация не меняется.
func (s *Slide) Release() {
	s.tex.Release()
}

// placement переводит нормализованную трансформацию в пиксели кадра.
func placement(tex *render.Texture, src render.Rect, t Transform, stage config.Stage) render.DrawParams {
	return render.DrawParams{
		Src:      src,
		CenterX:  t.X * float32(stage.Width),
		CenterY:  t.Y * float32(stage.Height),
		Width:    float32(tex.Width()) * t.Scale,
		Height:   float32(tex.Height()) * t.Scale,
		Rotation: t.Rotation,
	}
}
