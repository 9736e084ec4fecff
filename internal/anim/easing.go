package anim

import (
	"fmt"
	"strings"

	"github.com/tanema/gween/ease"
)

// Easing is a named curve mapping normalized time [0,1] to progress. Curves
// with overshoot (back-*) may leave [0,1] before settling at 1. The zero
// Easing is unset and evaluates as linear.
type Easing struct {
	name string
}

var (
	Linear     = Easing{"linear"}
	CubicOut   = Easing{"cubic-out"}
	CubicInOut = Easing{"cubic-in-out"}
	SineInOut  = Easing{"sine-in-out"}
	BackIn     = Easing{"back-in"}
	BackOut    = Easing{"back-out"}
)

var curves = map[string]ease.TweenFunc{
	Linear.name:     ease.Linear,
	CubicOut.name:   ease.OutCubic,
	CubicInOut.name: ease.InOutCubic,
	SineInOut.name:  ease.InOutSine,
	BackIn.name:     ease.InBack,
	BackOut.name:    ease.OutBack,
}

func (e Easing) Name() string {
	return e.name
}

func (e Easing) IsZero() bool {
	return e.name == ""
}

// Or returns def when e is unset.
func (e Easing) Or(def Easing) Easing {
	if e.IsZero() {
		return def
	}
	return e
}

func (e Easing) fn() ease.TweenFunc {
	if f, ok := curves[e.name]; ok {
		return f
	}
	return ease.Linear
}

// At evaluates the curve at t, clamped to [0,1].
func (e Easing) At(t float32) float32 {
	return e.fn()(Clamp(t, 0, 1), 0, 1, 1)
}

// ParseEasing resolves a curve by its config name.
func ParseEasing(name string) (Easing, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if _, ok := curves[key]; !ok {
		return Easing{}, fmt.Errorf("unknown easing %q", name)
	}
	return Easing{key}, nil
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
