package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ivlev/photowall/internal/analyzer"
	"github.com/ivlev/photowall/internal/config"
	"github.com/ivlev/photowall/internal/director"
	"github.com/ivlev/photowall/internal/render"
	"github.com/ivlev/photowall/internal/slide"
	"github.com/ivlev/photowall/internal/video"
)

// fakeSource отдаёт сплошные цветные картинки, индексы из broken падают.
type fakeSource struct {
	n      int
	broken map[int]bool
}

func (s *fakeSource) PageCount() int { return s.n }

func (s *fakeSource) RenderPage(i int, dpi int) (image.Image, error) {
	if s.broken[i] {
		return nil, fmt.Errorf("битый файл %d", i)
	}
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	draw.Draw(img, img.Rect, &image.Uniform{C: color.RGBA{R: uint8(50 * i), G: 200, A: 255}}, image.Point{}, draw.Src)
	return img, nil
}

func (s *fakeSource) Name(i int) string { return fmt.Sprintf("img%02d.png", i) }

func (s *fakeSource) Close() error { return nil }

func testConfig(variant string) *config.Config {
	return &config.Config{
		InputPath:         "photos",
		OutputVideo:       "photos.mp4",
		Variant:           variant,
		Width:             64,
		Height:            36,
		FPS:               10,
		DisplayDuration:   0.2,
		AnimationDuration: 0.1,
		CleanupInterval:   0.1,
		KenBurnsEndScale:  0.9,
		Seed:              42,
		Workers:           3,
		VideoEncoder:      "libx264",
		Quality:           23,
	}
}

func newTestProject(cfg *config.Config, src *fakeSource, sink *video.MemorySink) (*VideoProject, *int) {
	opened := 0
	p := NewVideoProject(cfg, src, nil, nil)
	p.NewSink = func(video.EncoderParams) (video.Sink, error) {
		opened++
		return sink, nil
	}
	return p, &opened
}

func TestVideoProjectRun(t *testing.T) {
	for _, variant := range []string{config.VariantLinear, config.VariantSpiral, config.VariantPushBox} {
		t.Run(variant, func(t *testing.T) {
			cfg := testConfig(variant)
			cfg.HighQuality = variant == config.VariantSpiral
			sink := &video.MemorySink{}
			p, _ := newTestProject(cfg, &fakeSource{n: 4, broken: map[int]bool{2: true}}, sink)

			rep, err := p.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}

			want := director.ExpectedFrames(variant, 3, cfg.Stage())
			if rep.Frames != want || len(sink.Frames) != want {
				t.Errorf("Frames = %d (sink %d), want %d", rep.Frames, len(sink.Frames), want)
			}
			if rep.Slides != 3 || rep.Skipped != 1 {
				t.Errorf("Slides %d skipped %d, want 3 and 1", rep.Slides, rep.Skipped)
			}
			if !sink.Closed {
				t.Error("Sink must be closed after the run")
			}
			if rep.PoolAllocated+rep.PoolReused < int64(rep.Slides) {
				t.Errorf("Pool stats %d/%d do not cover %d textures", rep.PoolAllocated, rep.PoolReused, rep.Slides)
			}
			for i, f := range sink.Frames {
				if len(f) != 64*36*4 {
					t.Fatalf("Frame %d has %d bytes", i, len(f))
				}
			}
		})
	}
}

// flakyDetector падает на картинках с нечётным индексом (R = 50*i) и
// находит объект в левой верхней четверти остальных.
type flakyDetector struct {
	calls atomic.Int32
}

func (d *flakyDetector) Detect(_ context.Context, img image.Image) ([]analyzer.Detection, error) {
	d.calls.Add(1)
	r, _, _, _ := img.At(0, 0).RGBA()
	if (r>>8)/50%2 == 1 {
		return nil, errors.New("boom")
	}
	return []analyzer.Detection{{Rect: image.Rect(0, 0, 20, 15), Label: "subject", Confidence: 0.95}}, nil
}

func TestVideoProjectDetectorFailure(t *testing.T) {
	cfg := testConfig(config.VariantPushBox)
	cfg.SubjectMinConfidence = 0.8
	cfg.ManifestPath = filepath.Join(t.TempDir(), "run.yaml")

	det := &flakyDetector{}
	sink := &video.MemorySink{}
	p := NewVideoProject(cfg, &fakeSource{n: 4}, nil, det)
	p.NewSink = func(video.EncoderParams) (video.Sink, error) { return sink, nil }

	rep, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Detector errors must not abort the run: %v", err)
	}
	if det.calls.Load() != 4 || rep.Slides != 4 {
		t.Fatalf("Detector called %d times for %d slides", det.calls.Load(), rep.Slides)
	}
	if rep.Frames != director.ExpectedFrames(config.VariantPushBox, 4, cfg.Stage()) {
		t.Errorf("Unexpected frame count %d", rep.Frames)
	}

	m, err := director.ReadManifest(rep.Manifest)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	center := slide.Crop{Scale: cfg.Stage().KenBurnsEndScale, CenterX: 0.5, CenterY: 0.5}
	subject := slide.SubjectCrop(image.Rect(0, 0, 20, 15), 40, 30)
	for i, e := range m.Slides {
		if e.Crop == nil {
			t.Fatalf("Slide %d has no crop", i)
		}
		if i%2 == 1 {
			if *e.Crop != center || e.Subject != nil {
				t.Errorf("Failed slide %d: crop %+v subject %+v, want center crop", i, *e.Crop, e.Subject)
			}
			continue
		}
		if *e.Crop != subject || e.Subject == nil {
			t.Errorf("Slide %d: crop %+v, want subject crop %+v", i, *e.Crop, subject)
		}
	}
}

func TestVideoProjectNoSlides(t *testing.T) {
	sink := &video.MemorySink{}
	p, opened := newTestProject(testConfig(config.VariantLinear), &fakeSource{n: 2, broken: map[int]bool{0: true, 1: true}}, sink)

	if _, err := p.Run(context.Background()); !errors.Is(err, ErrNoSlides) {
		t.Fatalf("Expected ErrNoSlides, got %v", err)
	}
	if *opened != 0 {
		t.Error("Encoder must not start when nothing was loaded")
	}
}

func TestVideoProjectWriteFailure(t *testing.T) {
	sink := &video.MemorySink{FailAt: 3}
	p, _ := newTestProject(testConfig(config.VariantLinear), &fakeSource{n: 2}, sink)

	rep, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Expected write error")
	}
	if rep.Frames != 2 || !sink.Closed {
		t.Errorf("Expected abort after 2 frames with sink closed, got %d closed=%v", rep.Frames, sink.Closed)
	}
}

func TestVideoProjectDryRun(t *testing.T) {
	cfg := testConfig(config.VariantSpiral)
	cfg.DryRun = true
	cfg.QRText = "photowall"
	cfg.ManifestPath = t.TempDir() + "/run.yaml"

	p, opened := newTestProject(cfg, &fakeSource{n: 5}, &video.MemorySink{})
	rep, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if *opened != 0 {
		t.Error("Dry run must not start the encoder")
	}
	if rep.Frames != rep.Expected {
		t.Errorf("Dry run frames %d, want %d", rep.Frames, rep.Expected)
	}

	m, err := director.ReadManifest(rep.Manifest)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if m.RunID != p.RunID || m.RenderedFrames != rep.Frames || len(m.Slides) != 5 {
		t.Errorf("Unexpected manifest %+v", m)
	}
}

// stubOrchestrator выдаёт ровно n кадров.
type stubOrchestrator struct {
	n, ticks int
	closed   bool
}

func (s *stubOrchestrator) Name() string { return "stub" }

func (s *stubOrchestrator) Tick(float32) bool {
	if s.ticks >= s.n {
		return false
	}
	s.ticks++
	return true
}

func (s *stubOrchestrator) Draw(render.Canvas) {}

func (s *stubOrchestrator) Entries() []director.ManifestSlide { return nil }
func (s *stubOrchestrator) Close()                            { s.closed = true }

func TestFrameDriverCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stage := config.DefaultStage()
	sink := &video.MemorySink{}
	d := &FrameDriver{
		Orchestrator:  &stubOrchestrator{n: 100},
		Canvas:        render.NewRecordingCanvas(4, 4),
		Sink:          sink,
		Stage:         stage,
		ProgressEvery: 10,
		Progress: func(frame int) {
			if frame == 30 {
				cancel()
			}
		},
	}

	frames, err := d.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if frames != 30 || len(sink.Frames) != 30 {
		t.Errorf("Stopped after %d frames (sink %d), want 30", frames, len(sink.Frames))
	}
}

func TestFrameDriverOverlay(t *testing.T) {
	qr, err := render.NewQRTexture("overlay", 16)
	if err != nil {
		t.Fatal(err)
	}
	defer qr.Release()

	c := render.NewRecordingCanvas(100, 50)
	d := &FrameDriver{
		Orchestrator: &stubOrchestrator{n: 3},
		Canvas:       c,
		Sink:         &video.NullSink{},
		Stage:        config.DefaultStage(),
		Overlay:      qr,
	}

	frames, err := d.Run(context.Background())
	if err != nil || frames != 3 {
		t.Fatalf("Run = %d, %v", frames, err)
	}
	if c.Clears != 3 || len(c.Calls) != 1 || c.Calls[0].Texture != qr {
		t.Errorf("Overlay not drawn last on a cleared frame: clears=%d calls=%d", c.Clears, len(c.Calls))
	}
	if p := c.Calls[0].Params; p.CenterX != 100-overlayMargin-8 || p.CenterY != 50-overlayMargin-8 {
		t.Errorf("Unexpected overlay placement %+v", p)
	}
}
