package video

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ivlev/photowall/internal/render"
)

// WriterSink пишет кадры в произвольный io.Writer в том же формате, что
// уходит в ffmpeg.
type WriterSink struct {
	W      io.Writer
	frames int
}

func (s *WriterSink) WriteFrame(f render.Frame) error {
	if err := writeRawRGBA(s.W, f); err != nil {
		return err
	}
	s.frames++
	return nil
}

func (s *WriterSink) Close() error {
	if c, ok := s.W.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *WriterSink) Frames() int { return s.frames }

// MemorySink копирует каждый кадр в память.
type MemorySink struct {
	Frames [][]byte
	Closed bool
	// FailAt > 0 имитирует падение энкодера на кадре с этим номером (с 1).
	FailAt int
}

func (s *MemorySink) WriteFrame(f render.Frame) error {
	if s.Closed {
		return fmt.Errorf("запись в закрытый приёмник")
	}
	if s.FailAt > 0 && len(s.Frames)+1 == s.FailAt {
		return io.ErrClosedPipe
	}
	var buf bytes.Buffer
	buf.Grow(f.Width * f.Height * 4)
	if err := writeRawRGBA(&buf, f); err != nil {
		return err
	}
	s.Frames = append(s.Frames, buf.Bytes())
	return nil
}

func (s *MemorySink) Close() error {
	s.Closed = true
	return nil
}

// NullSink считает кадры и ничего не пишет. Для холостого прогона.
type NullSink struct {
	Count int
}

func (s *NullSink) WriteFrame(render.Frame) error {
	s.Count++
	return nil
}

func (s *NullSink) Close() error { return nil }
