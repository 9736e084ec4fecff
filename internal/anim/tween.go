package anim

import (
	"github.com/tanema/gween"
)

// Tolerance absorbs float32 accumulation drift when a sum of fixed frame
// steps is compared against a phase duration: 120 steps of 1/60 must reach 2.0.
const Tolerance float32 = 1e-4

// Reached reports whether accumulated time has arrived at duration.
func Reached(acc, duration float32) bool {
	return acc+Tolerance >= duration
}

// Tween interpolates a single value from start to end over duration. It is
// consumed once: elapsed only grows and, once past duration, Apply keeps
// returning exactly End().
type Tween struct {
	tw       *gween.Tween
	end      float32
	duration float32
	elapsed  float32
}

func NewTween(easing Easing, start, end, duration float32) *Tween {
	return &Tween{
		tw:       gween.New(start, end, duration, easing.fn()),
		end:      end,
		duration: duration,
	}
}

// Apply advances the tween by dt and returns the eased value. Negative dt is
// treated as zero.
func (t *Tween) Apply(dt float32) float32 {
	if dt > 0 {
		t.elapsed += dt
	}
	if t.duration <= 0 || Reached(t.elapsed, t.duration) {
		return t.end
	}
	v, _ := t.tw.Set(t.elapsed)
	return v
}

func (t *Tween) Done() bool {
	return t.duration <= 0 || Reached(t.elapsed, t.duration)
}

func (t *Tween) End() float32     { return t.end }
func (t *Tween) Elapsed() float32 { return t.elapsed }
