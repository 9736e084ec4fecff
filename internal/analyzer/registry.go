package analyzer

import (
	"fmt"
	"time"
)

// Options параметры, нужные конкретным детекторам.
type Options struct {
	URL     string
	Timeout time.Duration
}

// NewDetector creates a detector based on the specified variant. "none" and
// "" disable detection and return a nil Detector.
func NewDetector(variant string, opts Options) (Detector, error) {
	switch variant {
	case "none", "":
		return nil, nil
	case "contrast":
		return NewContrastDetector(), nil
	case "http":
		if opts.URL == "" {
			return nil, fmt.Errorf("http detector requires a URL")
		}
		return NewHTTPDetector(opts.URL, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
