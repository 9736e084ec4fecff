package analyzer

import (
	"context"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// ContrastDetector ищет области с плотными контурами: градиент Собеля,
// дилатация, связные компоненты. Анализ идёт на уменьшенной копии.
type ContrastDetector struct {
	MinBlockArea  int     // минимальная площадь области на уменьшенной копии, px²
	EdgeThreshold float64 // порог модуля градиента для пикселя контура
	StrongEdge    float64 // средний градиент, при котором уверенность максимальна
	MaxConfidence float64
	MaxSide       int // длинная сторона копии для анализа
	Dilation      int // радиус дилатации, px
}

func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  200, // ~14x14 на копии 256px
		EdgeThreshold: 30,
		StrongEdge:    255,
		MaxConfidence: 0.95,
		MaxSide:       256,
		Dilation:      4,
	}
}

// Detect возвращает прямоугольники областей в координатах img. Уверенность
// области растёт со средней силой её контуров: слабая текстура получает
// низкий балл и отсекается порогом MergeSubjects.
func (d *ContrastDetector) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	small, kx, ky := downscale(img, d.MaxSide)
	gray := toGray(small)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	grad := sobel(gray)
	edges := make([]bool, len(grad.mag))
	for i, m := range grad.mag {
		edges[i] = float64(m) > d.EdgeThreshold
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	dets := []Detection{}
	for _, r := range findRegions(dilate(edges, grad.w, grad.h, d.Dilation), edges, grad) {
		if r.rect.Dx()*r.rect.Dy() < d.MinBlockArea || r.edges == 0 {
			continue
		}
		dets = append(dets, Detection{
			Rect: image.Rect(
				int(float64(r.rect.Min.X)*kx), int(float64(r.rect.Min.Y)*ky),
				int(math.Ceil(float64(r.rect.Max.X)*kx)), int(math.Ceil(float64(r.rect.Max.Y)*ky)),
			).Add(b.Min).Intersect(b),
			Label:      "subject",
			Confidence: d.score(r),
		})
	}
	return dets, nil
}

func (d *ContrastDetector) score(r region) float64 {
	mean := r.magSum / float64(r.edges)
	strength := 1.0
	if d.StrongEdge > 0 {
		strength = math.Min(1, mean/d.StrongEdge)
	}
	return d.MaxConfidence * strength
}

// downscale returns a copy whose longer side is at most maxSide, with origin
// (0,0), and the factors mapping its pixels back to the source.
func downscale(img image.Image, maxSide int) (image.Image, float64, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img, 1, 1
	}

	scale := float64(maxSide) / float64(max(w, h))
	sw := max(1, int(math.Round(float64(w)*scale)))
	sh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, sw, sh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Rect, img, b, xdraw.Src, nil)
	return dst, float64(w) / float64(sw), float64(h) / float64(sh)
}

// toGray копирует изображение в оттенки серого с началом в (0,0).
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(gray, gray.Rect, img, b.Min, xdraw.Src)
	return gray
}

// gradient модуль градиента Собеля, построчно. Крайние пиксели нулевые.
type gradient struct {
	w, h int
	mag  []float32
}

func sobel(gray *image.Gray) gradient {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	g := gradient{w: w, h: h, mag: make([]float32, w*h)}
	at := func(x, y int) float64 { return float64(gray.Pix[y*gray.Stride+x]) }

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			g.mag[y*w+x] = float32(math.Hypot(gx, gy))
		}
	}
	return g
}

// dilate квадратная дилатация радиуса r, разложенная на два прохода.
func dilate(mask []bool, w, h, r int) []bool {
	if r <= 0 {
		return mask
	}
	rows := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for k := max(0, x-r); k <= min(w-1, x+r); k++ {
				if mask[y*w+k] {
					rows[y*w+x] = true
					break
				}
			}
		}
	}

	out := make([]bool, len(mask))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			for k := max(0, y-r); k <= min(h-1, y+r); k++ {
				if rows[k*w+x] {
					out[y*w+x] = true
					break
				}
			}
		}
	}
	return out
}

// region связная область маски и статистика исходных контуров внутри неё.
type region struct {
	rect   image.Rectangle
	edges  int
	magSum float64
}

// findRegions обходит 4-связные компоненты mask. Пиксели edges внутри
// компоненты дают её силу.
func findRegions(mask, edges []bool, g gradient) []region {
	visited := make([]bool, len(mask))
	var out []region
	var stack []int

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		x0, y0 := start%g.w, start/g.w
		r := region{rect: image.Rect(x0, y0, x0+1, y0+1)}

		visited[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%g.w, i/g.w

			r.rect = r.rect.Union(image.Rect(x, y, x+1, y+1))
			if edges[i] {
				r.edges++
				r.magSum += float64(g.mag[i])
			}

			for _, n := range [4]int{i - 1, i + 1, i - g.w, i + g.w} {
				if n < 0 || n >= len(mask) || visited[n] || !mask[n] {
					continue
				}
				// Соседи слева и справа должны быть в той же строке
				if (n == i-1 || n == i+1) && n/g.w != y {
					continue
				}
				visited[n] = true
				stack = append(stack, n)
			}
		}
		out = append(out, r)
	}
	return out
}
