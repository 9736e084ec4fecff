package director

import (
	"image"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/ivlev/photowall/internal/config"
	"github.com/ivlev/photowall/internal/render"
	"github.com/ivlev/photowall/internal/slide"
)

func items(n int) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{
			Name:    filepath.Join("photos", string(rune('a'+i))+".jpg"),
			Texture: render.NewTexture(image.NewRGBA(image.Rect(0, 0, 64, 48))),
		}
	}
	return out
}

// drive прогоняет оркестратор до конца и считает кадры.
func drive(t *testing.T, o Orchestrator, stage config.Stage) int {
	t.Helper()
	dt := stage.FrameTime()
	frames := 0
	for o.Tick(dt) {
		frames++
		if frames > 1_000_000 {
			t.Fatal("Orchestrator never finished")
		}
	}
	if o.Tick(dt) {
		t.Fatal("Tick after completion must keep returning false")
	}
	return frames
}

func TestRevealFrameCount(t *testing.T) {
	tests := []struct {
		name    string
		variant string
		n       int
		want    int
	}{
		{"linear three slides", config.VariantLinear, 3, 486},
		{"linear one slide", config.VariantLinear, 1, 162},
		{"spiral three slides", config.VariantSpiral, 3, 486},
		{"spiral one slide", config.VariantSpiral, 1, 162},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage := config.DefaultStage()
			o, err := New(tt.variant, items(tt.n), stage, rand.New(rand.NewSource(1)))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer o.Close()

			if got := drive(t, o, stage); got != tt.want {
				t.Errorf("Rendered %d frames, want %d", got, tt.want)
			}
			if got := ExpectedFrames(tt.variant, tt.n, stage); got != tt.want {
				t.Errorf("ExpectedFrames = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPushBoxFrameCount(t *testing.T) {
	stage := config.DefaultStage()
	for _, n := range []int{1, 2, 5} {
		o := NewPushBox(items(n), stage)
		got := drive(t, o, stage)
		want := ExpectedFrames(config.VariantPushBox, n, stage)
		if got != want {
			t.Errorf("n=%d: rendered %d frames, want %d", n, got, want)
		}
		o.Close()
	}

	if got := ExpectedFrames(config.VariantPushBox, 1, stage); got != 239 {
		t.Errorf("Single push-box slide: %d frames, want 239", got)
	}
}

func TestExpectedFramesCustomStage(t *testing.T) {
	stage := config.DefaultStage()
	stage.FPS = 30
	stage.DisplayDuration = 1.0
	stage.AnimationDuration = 0.25
	stage.CleanupInterval = 0.1

	for _, variant := range []string{config.VariantLinear, config.VariantSpiral, config.VariantPushBox} {
		o, err := New(variant, items(4), stage, rand.New(rand.NewSource(7)))
		if err != nil {
			t.Fatalf("New(%s): %v", variant, err)
		}
		got := drive(t, o, stage)
		if want := ExpectedFrames(variant, 4, stage); got != want {
			t.Errorf("%s: rendered %d frames, want %d", variant, got, want)
		}
		o.Close()
	}
}

func TestCleanupOrder(t *testing.T) {
	stage := config.DefaultStage()
	r := NewLinear(items(5), stage, rand.New(rand.NewSource(3)))
	defer r.Close()

	drive(t, r, stage)

	got := r.HiddenOrder()
	want := []int{4, 3, 2, 1, 0}
	if len(got) != len(want) {
		t.Fatalf("Hidden %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Hidden %v, want %v", got, want)
		}
	}
	for i, s := range r.Slides() {
		if s.Visible() {
			t.Errorf("Slide %d still visible after cleanup", i)
		}
	}
}

func TestRevealDrawRule(t *testing.T) {
	stage := config.DefaultStage()
	r := NewLinear(items(3), stage, rand.New(rand.NewSource(5)))
	defer r.Close()

	c := render.NewRecordingCanvas(stage.Width, stage.Height)
	dt := stage.FrameTime()
	maxAnimating := 0

	for r.Tick(dt) {
		c.Clear(render.Black)
		r.Draw(c)

		want := r.Current() + 1
		if r.State() == Cleanup || r.State() == Finished {
			want = 0
			for _, s := range r.Slides() {
				if s.Visible() {
					want++
				}
			}
		}
		if len(c.Calls) != want {
			t.Fatalf("state=%s current=%d: drew %d slides, want %d", r.State(), r.Current(), len(c.Calls), want)
		}

		animating := 0
		for _, s := range r.Slides() {
			if s.Animating() {
				animating++
			}
		}
		if animating > maxAnimating {
			maxAnimating = animating
		}
	}
	if maxAnimating != 1 {
		t.Errorf("Expected exactly one animating slide at a time, saw %d", maxAnimating)
	}
}

func TestLinearTargets(t *testing.T) {
	stage := config.DefaultStage()
	r := NewLinear(items(50), stage, rand.New(rand.NewSource(11)))
	defer r.Close()

	for i, s := range r.Slides() {
		tg, base := s.Target(), s.Prominent().Scale
		if tg.X < 0.05 || tg.X >= 0.95 || tg.Y < 0.05 || tg.Y >= 0.95 {
			t.Errorf("Slide %d: position (%f, %f) outside scatter area", i, tg.X, tg.Y)
		}
		if tg.Scale < 0.2*base || tg.Scale >= 0.3*base {
			t.Errorf("Slide %d: scale %f outside [0.2, 0.3) x %f", i, tg.Scale, base)
		}
		if tg.Rotation < -15 || tg.Rotation >= 15 {
			t.Errorf("Slide %d: rotation %f", i, tg.Rotation)
		}
	}
}

func TestSpiralAssignsEverySlide(t *testing.T) {
	stage := config.DefaultStage()
	r := NewSpiral(items(12), stage, rand.New(rand.NewSource(2)))
	defer r.Close()

	cells := r.Assignments()
	if len(cells) != 12 {
		t.Fatalf("Got %d assignments, want 12", len(cells))
	}
	for i, a := range cells {
		if r.Slides()[a.SlideIndex].Target() != a.Final {
			t.Errorf("Slide %d target does not match its assignment", i)
		}
	}
	for _, e := range r.Entries() {
		if e.Cell == nil || e.Final == nil {
			t.Errorf("Entry %d misses cell or final transform", e.Index)
		}
	}
}

func TestPushBoxWindow(t *testing.T) {
	stage := config.DefaultStage()
	its := items(4)
	its[1].Subject = image.Rect(10, 10, 20, 20)
	its[1].HasSubject = true

	p := NewPushBox(its, stage)
	defer p.Close()

	dt := stage.FrameTime()
	for p.Tick(dt) {
		visible := 0
		for i, b := range p.Slides() {
			if b.Visible() {
				visible++
				if d := i - p.Current(); d < -1 || d > 1 {
					t.Fatalf("Slide %d visible outside window of %d", i, p.Current())
				}
			}
		}
		if visible > 2 {
			t.Fatalf("%d slides visible at once", visible)
		}
	}

	for i, b := range p.Slides() {
		if !b.Finished() {
			t.Errorf("Slide %d did not finish", i)
		}
	}

	entries := p.Entries()
	if entries[1].Subject == nil || entries[1].Crop.Scale != slide.MinSubjectCrop {
		t.Errorf("Subject crop not recorded: %+v", entries[1])
	}
	if entries[0].Subject != nil || entries[0].Crop.Scale != stage.KenBurnsEndScale {
		t.Errorf("Default crop not recorded: %+v", entries[0])
	}
}

func TestNewUnknownVariant(t *testing.T) {
	if _, err := New("zigzag", nil, config.DefaultStage(), rand.New(rand.NewSource(1))); err == nil {
		t.Error("Expected error for unknown variant")
	}
}

func TestEmptyOrchestrators(t *testing.T) {
	stage := config.DefaultStage()
	for _, o := range []Orchestrator{
		NewLinear(nil, stage, rand.New(rand.NewSource(1))),
		NewPushBox(nil, stage),
	} {
		if o.Tick(stage.FrameTime()) {
			t.Errorf("%s: empty orchestrator produced a frame", o.Name())
		}
		o.Draw(render.NewRecordingCanvas(4, 4))
		o.Close()
	}
}
