package director

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/photowall/internal/config"
)

func TestManifestPath(t *testing.T) {
	now := time.Date(2026, 2, 13, 1, 0, 0, 0, time.UTC)
	tests := []struct {
		output string
		want   string
	}{
		{"holiday.mp4", "holiday_2026-02-13_01-00-00.yaml"},
		{filepath.Join("out", "trip.mp4"), filepath.Join("out", "trip_2026-02-13_01-00-00.yaml")},
		{"noext", "noext_2026-02-13_01-00-00.yaml"},
	}

	for _, tt := range tests {
		if got := ManifestPath(tt.output, now); got != tt.want {
			t.Errorf("ManifestPath(%s) = %s, want %s", tt.output, got, tt.want)
		}
	}
}

func TestManifestWriteRead(t *testing.T) {
	stage := config.DefaultStage()
	o := NewSpiral(items(3), stage, rand.New(rand.NewSource(9)))
	defer o.Close()

	m := NewManifest(o, stage, "photos", "photos.mp4")
	m.RenderedFrames = 486

	if _, err := uuid.Parse(m.RunID); err != nil {
		t.Errorf("RunID is not a UUID: %v", err)
	}
	if m.ExpectedFrames != 486 {
		t.Errorf("Expected 486 frames in manifest, got %d", m.ExpectedFrames)
	}

	path := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := WriteManifest(m, path); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}

	if got.RunID != m.RunID || got.Variant != config.VariantSpiral || got.RenderedFrames != 486 {
		t.Errorf("Header mismatch: %+v", got)
	}
	if got.Stage.ScaleEasing != "back-in" || got.Stage.PositionEasing != "cubic-out" {
		t.Errorf("Curves not recorded: %+v", got.Stage)
	}
	if len(got.Slides) != 3 {
		t.Fatalf("Slide count mismatch: %d", len(got.Slides))
	}
	for i, s := range got.Slides {
		if s.Cell == nil || *s.Cell != *m.Slides[i].Cell {
			t.Errorf("Slide %d cell mismatch", i)
		}
		if s.Crop != nil || s.Subject != nil {
			t.Errorf("Slide %d carries push-box fields", i)
		}
	}
}
