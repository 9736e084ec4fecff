package analyzer

import (
	"context"
	"image"
)

// Detection represents a detected subject in an image
type Detection struct {
	Rect       image.Rectangle
	Label      string  // "subject", "face", "unknown"
	Confidence float64 // 0.0-1.0
}

// Detector is the interface for subject detection strategies
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// MergeSubjects объединяет все детекции с уверенностью строго выше minConf
// в одну рамку по крайним границам. ok == false, если таких нет.
func MergeSubjects(dets []Detection, minConf float64) (image.Rectangle, bool) {
	var merged image.Rectangle
	found := false
	for _, d := range dets {
		if d.Confidence <= minConf || d.Rect.Empty() {
			continue
		}
		if !found {
			merged = d.Rect
			found = true
			continue
		}
		merged = merged.Union(d.Rect)
	}
	return merged, found
}
