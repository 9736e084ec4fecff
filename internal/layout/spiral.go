// Package layout раскладывает слайды по сетке мозаики.
package layout

import (
	"image"
	"math"
	"math/rand"

	"github.com/ivlev/photowall/internal/config"
	"github.com/ivlev/photowall/internal/slide"
)

const (
	positionJitter = 0.01
	scaleJitter    = 0.05
	maxRotation    = 15.0
	// cellOverlap ширина слайда относительно ячейки: соседи перекрываются.
	cellOverlap = 1.5
)

// Cell ячейка сетки.
type Cell struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

// Adjacent сообщает, что ячейки соседствуют по стороне.
func (c Cell) Adjacent(o Cell) bool {
	dr, dc := c.Row-o.Row, c.Col-o.Col
	return dr*dr+dc*dc == 1
}

// GridAssignment итоговое место слайда в мозаике. Не меняется после расчёта.
type GridAssignment struct {
	SlideIndex int
	Cell       Cell
	Final      slide.Transform
}

// GridSize подбирает сетку под пропорции кадра: rows = ceil(sqrt(n/aspect)),
// cols = ceil(n/rows).
func GridSize(count int, aspect float32) (rows, cols int) {
	if count <= 0 {
		return 0, 0
	}
	if aspect <= 0 {
		aspect = 1
	}
	rows = int(math.Ceil(math.Sqrt(float64(count) / float64(aspect))))
	if rows < 1 {
		rows = 1
	}
	cols = int(math.Ceil(float64(count) / float64(rows)))
	return rows, cols
}

// SpiralCells обходит сетку rows×cols по спирали от левого верхнего угла
// внутрь и возвращает первые count ячеек.
func SpiralCells(rows, cols, count int) []Cell {
	if count > rows*cols {
		count = rows * cols
	}
	cells := make([]Cell, 0, count)

	top, bottom, left, right := 0, rows-1, 0, cols-1
	for len(cells) < count && top <= bottom && left <= right {
		for c := left; c <= right && len(cells) < count; c++ {
			cells = append(cells, Cell{Row: top, Col: c})
		}
		top++
		for r := top; r <= bottom && len(cells) < count; r++ {
			cells = append(cells, Cell{Row: r, Col: right})
		}
		right--
		if top <= bottom {
			for c := right; c >= left && len(cells) < count; c-- {
				cells = append(cells, Cell{Row: bottom, Col: c})
			}
			bottom--
		}
		if left <= right {
			for r := bottom; r >= top && len(cells) < count; r-- {
				cells = append(cells, Cell{Row: r, Col: left})
			}
			left++
		}
	}
	return cells
}

// Spiral раскладка мозаики по спирали.
type Spiral struct {
	Stage config.Stage
	Rand  *rand.Rand
}

// Compute назначает каждому слайду ячейку в порядке списка. sizes размеры
// текстур в пикселях.
func (s Spiral) Compute(sizes []image.Point) []GridAssignment {
	rows, cols := GridSize(len(sizes), s.Stage.Aspect())
	cells := SpiralCells(rows, cols, len(sizes))

	stepX := 1 / float32(cols)
	stepY := 1 / float32(rows)
	targetWidth := float32(s.Stage.Width) / float32(cols) * cellOverlap

	out := make([]GridAssignment, len(cells))
	for i, cell := range cells {
		ref := sizes[i].X
		if sizes[i].Y > ref {
			ref = sizes[i].Y
		}
		scale := float32(1)
		if ref > 0 {
			scale = targetWidth / float32(ref) * (1 + s.jitter(scaleJitter))
		}

		out[i] = GridAssignment{
			SlideIndex: i,
			Cell:       cell,
			Final: slide.Transform{
				X:        stepX*0.5 + float32(cell.Col)*stepX + s.jitter(positionJitter),
				Y:        stepY*0.5 + float32(cell.Row)*stepY + s.jitter(positionJitter),
				Scale:    scale,
				Rotation: s.jitter(maxRotation),
			},
		}
	}
	return out
}

// jitter равномерно в [-amp, amp).
func (s Spiral) jitter(amp float32) float32 {
	return (s.Rand.Float32()*2 - 1) * amp
}
