package video

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/ivlev/photowall/internal/render"
)

// Sink принимает готовые кадры. Close обязателен: только после него
// результат считается записанным.
type Sink interface {
	WriteFrame(f render.Frame) error
	Close() error
}

// EncoderParams неизменные на весь прогон параметры энкодера.
type EncoderParams struct {
	Width   int
	Height  int
	FPS     int
	Filter  string // цепочка -vf, пустая строка без фильтров
	Encoder string
	Quality int
	Output  string
}

// FFmpegSink пишет сырые RGBA-кадры в stdin процесса ffmpeg.
type FFmpegSink struct {
	params EncoderParams
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	frames int
	closed bool
}

// NewFFmpegSink запускает ffmpeg. Процесс не привязан к контексту: при
// прерывании его завершает Close, чтобы файл был корректно дописан.
func NewFFmpegSink(p EncoderParams) (*FFmpegSink, error) {
	s := &FFmpegSink{params: p}
	s.cmd = exec.Command("ffmpeg", buildFFmpegArgs(p)...)
	s.cmd.Stderr = &s.stderr

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	s.stdin = stdin

	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return s, nil
}

func buildFFmpegArgs(p EncoderParams) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
	}
	if p.Filter != "" {
		args = append(args, "-vf", p.Filter)
	}
	args = append(args, "-c:v", p.Encoder)

	// Качество в зависимости от энкодера
	switch p.Encoder {
	case "h264_videotoolbox":
		bitrate := p.Quality * 100 // кбит/с. 75 -> 7.5Мбит/с
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", p.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", p.Quality), "-preset", "medium")
	}

	args = append(args, "-pix_fmt", "yuv420p", p.Output)
	return args
}

func (s *FFmpegSink) WriteFrame(f render.Frame) error {
	if s.closed {
		return fmt.Errorf("запись в закрытый энкодер")
	}
	if f.Width != s.params.Width || f.Height != s.params.Height {
		return fmt.Errorf("размер кадра %dx%d не совпадает с %dx%d", f.Width, f.Height, s.params.Width, s.params.Height)
	}
	if err := writeRawRGBA(s.stdin, f); err != nil {
		return fmt.Errorf("write raw error (кадр %d): %w", s.frames, err)
	}
	s.frames++
	return nil
}

// Close закрывает stdin и ждёт завершения ffmpeg.
func (s *FFmpegSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, lastLines(s.stderr.String(), 10))
	}
	return nil
}

// writeRawRGBA пишет кадр сверху вниз по width*4 байт на строку, без
// padding из Stride. Кадры снизу вверх переворачиваются построчно.
func writeRawRGBA(w io.Writer, f render.Frame) error {
	rowLen := f.Width * 4
	if !f.BottomUp && f.Stride == rowLen {
		_, err := w.Write(f.Pix[:rowLen*f.Height])
		return err
	}
	for y := 0; y < f.Height; y++ {
		src := y
		if f.BottomUp {
			src = f.Height - 1 - y
		}
		off := src * f.Stride
		if _, err := w.Write(f.Pix[off : off+rowLen]); err != nil {
			return err
		}
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
