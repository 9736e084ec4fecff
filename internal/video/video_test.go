package video

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ivlev/photowall/internal/render"
)

func TestBuildFFmpegArgs(t *testing.T) {
	tests := []struct {
		name    string
		params  EncoderParams
		want    []string
		without []string
	}{
		{
			name:    "libx264 without filter",
			params:  EncoderParams{Width: 1920, Height: 1080, FPS: 60, Encoder: "libx264", Quality: 23, Output: "out.mp4"},
			want:    []string{"-f rawvideo", "-pixel_format rgba", "-video_size 1920x1080", "-framerate 60", "-i -", "-c:v libx264", "-crf 23", "-pix_fmt yuv420p out.mp4"},
			without: []string{"-vf"},
		},
		{
			name:   "videotoolbox with filter",
			params: EncoderParams{Width: 1280, Height: 720, FPS: 30, Filter: "fade=t=in:st=0:d=1", Encoder: "h264_videotoolbox", Quality: 75, Output: "a.mp4"},
			want:   []string{"-vf fade=t=in:st=0:d=1", "-b:v 7500k", "-framerate 30"},
		},
		{
			name:   "nvenc",
			params: EncoderParams{Width: 640, Height: 480, FPS: 25, Encoder: "h264_nvenc", Quality: 28, Output: "b.mp4"},
			want:   []string{"-cq 28"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			joined := strings.Join(buildFFmpegArgs(tt.params), " ")
			for _, w := range tt.want {
				if !strings.Contains(joined, w) {
					t.Errorf("Args %q miss %q", joined, w)
				}
			}
			for _, w := range tt.without {
				if strings.Contains(joined, w) {
					t.Errorf("Args %q must not contain %q", joined, w)
				}
			}
			if !strings.HasSuffix(joined, tt.params.Output) {
				t.Errorf("Output must be the last argument: %q", joined)
			}
		})
	}
}

// frame 2x3 с номером строки в каждом байте и необязательным padding.
func frame(stride int, bottomUp bool) render.Frame {
	pix := make([]byte, stride*3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 8; x++ {
			pix[y*stride+x] = byte(y + 1)
		}
	}
	return render.Frame{Pix: pix, Width: 2, Height: 3, Stride: stride, BottomUp: bottomUp}
}

func TestWriteRawRGBA(t *testing.T) {
	tests := []struct {
		name  string
		frame render.Frame
		rows  []byte
	}{
		{"tight top-down", frame(8, false), []byte{1, 2, 3}},
		{"padded top-down", frame(12, false), []byte{1, 2, 3}},
		{"bottom-up flipped", frame(8, true), []byte{3, 2, 1}},
		{"padded bottom-up", frame(16, true), []byte{3, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeRawRGBA(&buf, tt.frame); err != nil {
				t.Fatalf("writeRawRGBA: %v", err)
			}
			want := make([]byte, 0, 24)
			for _, r := range tt.rows {
				want = append(want, bytes.Repeat([]byte{r}, 8)...)
			}
			if !bytes.Equal(buf.Bytes(), want) {
				t.Errorf("Got %v, want %v", buf.Bytes(), want)
			}
		})
	}
}

func TestMemorySink(t *testing.T) {
	s := &MemorySink{}
	f := frame(8, false)
	if err := s.WriteFrame(f); err != nil {
		t.Fatal(err)
	}
	// Кадр копируется: изменение буфера после записи не влияет на сохранённое.
	f.Pix[0] = 99
	if s.Frames[0][0] != 1 {
		t.Error("MemorySink must copy frame bytes")
	}
	if len(s.Frames[0]) != 2*3*4 {
		t.Errorf("Unexpected frame size %d", len(s.Frames[0]))
	}

	s.Close()
	if err := s.WriteFrame(f); err == nil {
		t.Error("Expected error after Close")
	}

	failing := &MemorySink{FailAt: 2}
	failing.WriteFrame(f)
	if err := failing.WriteFrame(f); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("Expected simulated failure, got %v", err)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := &WriterSink{W: &buf}
	for i := 0; i < 3; i++ {
		if err := s.WriteFrame(frame(8, true)); err != nil {
			t.Fatal(err)
		}
	}
	if s.Frames() != 3 || buf.Len() != 3*2*3*4 {
		t.Errorf("Wrote %d frames, %d bytes", s.Frames(), buf.Len())
	}

	bad := &WriterSink{W: failWriter{}}
	if err := bad.WriteFrame(frame(8, false)); err == nil {
		t.Error("Expected write error")
	}
}

func TestLastLines(t *testing.T) {
	if got := lastLines("a\nb\nc\n", 2); got != "b\nc" {
		t.Errorf("lastLines = %q", got)
	}
}
