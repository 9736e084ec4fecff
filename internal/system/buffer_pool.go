package system

import (
	"image"
	"sync"
	"sync/atomic"
)

// ImagePool переиспользует буферы *image.RGBA одинакового размера
// (текстуры слайдов, кадровый буфер), чтобы не нагружать GC.
type ImagePool struct {
	pools map[image.Point]*sync.Pool
	mu    sync.RWMutex

	allocated atomic.Int64
	reused    atomic.Int64
}

var globalPool = NewImagePool()

func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Point]*sync.Pool)}
}

// GetImage возвращает буфер нужного размера из глобального пула.
// Содержимое буфера не очищается.
func GetImage(w, h int) *image.RGBA {
	return globalPool.Get(w, h)
}

// PutImage возвращает буфер в глобальный пул.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

// PoolStats возвращает число созданных и переиспользованных буферов.
func PoolStats() (allocated, reused int64) {
	return globalPool.allocated.Load(), globalPool.reused.Load()
}

func (p *ImagePool) pool(size image.Point) *sync.Pool {
	p.mu.RLock()
	pool, exists := p.pools[size]
	p.mu.RUnlock()
	if exists {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Double check
	if pool, exists = p.pools[size]; exists {
		return pool
	}
	pool = &sync.Pool{}
	p.pools[size] = pool
	return pool
}

func (p *ImagePool) Get(w, h int) *image.RGBA {
	if v := p.pool(image.Pt(w, h)).Get(); v != nil {
		p.reused.Add(1)
		return v.(*image.RGBA)
	}
	p.allocated.Add(1)
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	// Чужие подизображения (SubImage) в пул не попадают
	if img.Rect.Min != (image.Point{}) || img.Stride != img.Rect.Dx()*4 {
		return
	}
	p.pool(img.Rect.Size()).Put(img)
}
