package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/photowall/internal/analyzer"
	"github.com/ivlev/photowall/internal/config"
	"github.com/ivlev/photowall/internal/director"
	"github.com/ivlev/photowall/internal/effects"
	"github.com/ivlev/photowall/internal/render"
	"github.com/ivlev/photowall/internal/source"
	"github.com/ivlev/photowall/internal/system"
	"github.com/ivlev/photowall/internal/video"
)

// ErrNoSlides ни одно изображение не удалось загрузить.
var ErrNoSlides = errors.New("no slides loaded")

// qrSize сторона QR-кода относительно высоты кадра.
const qrSize = 0.15

type VideoProject struct {
	Config   *config.Config
	Source   source.Source
	Effect   effects.Effect
	Detector analyzer.Detector

	// NewSink открывает приёмник кадров после загрузки слайдов.
	NewSink func(video.EncoderParams) (video.Sink, error)
	// NewCanvas создаёт холст рендера. По умолчанию SoftwareCanvas.
	NewCanvas func(w, h int) render.Canvas

	RunID string
}

func NewVideoProject(cfg *config.Config, src source.Source, eff effects.Effect, det analyzer.Detector) *VideoProject {
	return &VideoProject{
		Config:   cfg,
		Source:   src,
		Effect:   eff,
		Detector: det,
		NewSink: func(p video.EncoderParams) (video.Sink, error) {
			return video.NewFFmpegSink(p)
		},
		NewCanvas: func(w, h int) render.Canvas {
			c := render.NewSoftwareCanvas(w, h)
			if cfg.HighQuality {
				return c.WithQuality()
			}
			return c
		},
		RunID: uuid.NewString(),
	}
}

// Report итоги прогона.
type Report struct {
	Slides   int
	Skipped  int
	Expected int
	Frames   int
	Load     time.Duration
	Render   time.Duration
	Total    time.Duration
	Memory   system.MemoryStats
	Manifest string

	// Буферы пула изображений: создано и переиспользовано за процесс
	PoolAllocated int64
	PoolReused    int64
}

func (p *VideoProject) Run(ctx context.Context) (*Report, error) {
	startTime := time.Now()
	cfg := p.Config
	stage := cfg.Stage()
	rep := &Report{}

	pageCount := p.Source.PageCount()
	if pageCount == 0 {
		return nil, fmt.Errorf("источник не содержит изображений: %w", ErrNoSlides)
	}

	fmt.Println("--- [PROJECT: PHOTOWALL] ---")
	fmt.Printf("[*] Источник: %s | Изображений: %d\n", cfg.InputPath, pageCount)
	fmt.Printf("[*] Вариант: %s | Разрешение: %dx%d @ %d FPS\n", cfg.Variant, stage.Width, stage.Height, stage.FPS)
	fmt.Println("-----------------------------")

	// 1. Загрузка слайдов (CPU bound, параллельно)
	loadStart := time.Now()
	items, err := p.loadItems(ctx, pageCount)
	if err != nil {
		return nil, err
	}
	rep.Load = time.Since(loadStart)
	rep.Slides = len(items)
	rep.Skipped = pageCount - len(items)
	if len(items) == 0 {
		return nil, ErrNoSlides
	}
	if rep.Skipped > 0 {
		fmt.Printf("[!] Пропущено изображений: %d\n", rep.Skipped)
	}
	p.checkMemory(items)

	// 2. Оркестратор
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	orch, err := director.New(cfg.Variant, items, stage, rand.New(rand.NewSource(seed)))
	if err != nil {
		releaseItems(items)
		return nil, err
	}
	defer orch.Close()

	rep.Expected = director.ExpectedFrames(cfg.Variant, len(items), stage)
	totalDuration := float64(rep.Expected) / float64(stage.FPS)
	fmt.Printf("[*] Seed: %d | Ожидается кадров: %d (%.2fs)\n", seed, rep.Expected, totalDuration)

	// 3. Приёмник открывается только после успешной загрузки
	sink, canvas, err := p.openOutput(stage, totalDuration)
	if err != nil {
		return nil, err
	}

	driver := &FrameDriver{
		Orchestrator:  orch,
		Canvas:        canvas,
		Sink:          sink,
		Stage:         stage,
		ProgressEvery: stage.FPS * 5,
		Progress: func(frame int) {
			fmt.Printf("[>] Кадр %d/%d\n", frame, rep.Expected)
		},
	}
	if cfg.QRText != "" {
		qr, err := render.NewQRTexture(cfg.QRText, int(float64(stage.Height)*qrSize))
		if err != nil {
			log.Printf("[!] QR-код не создан: %v", err)
		} else {
			defer qr.Release()
			driver.Overlay = qr
		}
	}

	// 4. Рендер
	renderStart := time.Now()
	frames, runErr := driver.Run(ctx)
	rep.Frames = frames
	rep.Render = time.Since(renderStart)

	// Энкодер закрываем и при ошибке, и при прерывании: ffmpeg дописывает
	// то, что успел получить.
	closeErr := sink.Close()
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Printf("[!] Рендер прерван на кадре %d/%d\n", frames, rep.Expected)
		}
		return rep, runErr
	}
	if closeErr != nil {
		return rep, fmt.Errorf("ошибка завершения энкодера: %w", closeErr)
	}

	if cfg.ManifestPath != "" {
		rep.Manifest = p.writeManifest(orch, stage, frames)
	}

	rep.Total = time.Since(startTime)
	if m, err := system.ReadMemoryStats(); err == nil {
		rep.Memory = m
	}
	rep.PoolAllocated, rep.PoolReused = system.PoolStats()
	if cfg.ShowStats {
		p.printStats(rep)
	}
	return rep, nil
}

// loadItems декодирует и анализирует изображения параллельно, сохраняя
// исходный порядок. Ошибки отдельных файлов пропускаются.
func (p *VideoProject) loadItems(ctx context.Context, pageCount int) ([]director.Item, error) {
	slots := make([]*director.Item, pageCount)

	g, gctx := errgroup.WithContext(ctx)
	workers := p.Config.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i := 0; i < pageCount; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			name := p.Source.Name(i)
			img, err := p.Source.RenderPage(i, p.Config.DPI)
			if err != nil {
				log.Printf("[!] Пропуск %s: %v", name, err)
				return nil
			}

			item := &director.Item{Name: name}
			item.Subject, item.HasSubject = p.detectSubject(gctx, name, img)
			item.Texture = render.NewTexture(img)
			slots[i] = item
			fmt.Printf("[>] Загружено: %d/%d %s\n", i+1, pageCount, name)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, it := range slots {
			if it != nil {
				it.Texture.Release()
			}
		}
		return nil, err
	}

	items := make([]director.Item, 0, pageCount)
	for _, it := range slots {
		if it != nil {
			items = append(items, *it)
		}
	}
	return items, nil
}

// detectSubject возвращает рамку объекта в координатах текстуры. Сбой
// детектора не прерывает рендер: слайд получит кадрирование по центру.
func (p *VideoProject) detectSubject(ctx context.Context, name string, img image.Image) (image.Rectangle, bool) {
	if p.Detector == nil {
		return image.Rectangle{}, false
	}

	if t := p.Config.DetectorTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(t*float64(time.Second)))
		defer cancel()
	}

	dets, err := p.Detector.Detect(ctx, img)
	if err != nil {
		log.Printf("[!] Детекция %s не удалась: %v, кадрирование по центру", name, err)
		return image.Rectangle{}, false
	}
	rect, ok := analyzer.MergeSubjects(dets, p.Config.SubjectMinConfidence)
	if !ok {
		return image.Rectangle{}, false
	}
	return rect.Sub(img.Bounds().Min), true
}

func (p *VideoProject) checkMemory(items []director.Item) {
	var total uint64
	for _, it := range items {
		total += it.Texture.Bytes()
	}
	if fits, available := system.FrameBudget(total); !fits {
		fmt.Printf("[!] Текстуры занимают %d МБ при доступных %d МБ\n", total>>20, available>>20)
	}
}

func (p *VideoProject) openOutput(stage config.Stage, totalDuration float64) (video.Sink, render.Canvas, error) {
	cfg := p.Config
	if cfg.DryRun {
		fmt.Println("[*] Холостой прогон: кадры не кодируются")
		return &video.NullSink{}, render.NewRecordingCanvas(stage.Width, stage.Height), nil
	}

	filter := ""
	if p.Effect != nil {
		filter = p.Effect.GenerateFilter(config.FilterParams{
			Width:         stage.Width,
			Height:        stage.Height,
			FPS:           stage.FPS,
			TotalDuration: totalDuration,
			FadeIn:        cfg.FadeIn,
			FadeOut:       cfg.FadeOut,
			Debug:         cfg.Debug,
		})
	}

	sink, err := p.NewSink(video.EncoderParams{
		Width:   stage.Width,
		Height:  stage.Height,
		FPS:     stage.FPS,
		Filter:  filter,
		Encoder: cfg.VideoEncoder,
		Quality: cfg.Quality,
		Output:  cfg.OutputVideo,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось запустить энкодер: %w", err)
	}
	return sink, p.NewCanvas(stage.Width, stage.Height), nil
}

func (p *VideoProject) writeManifest(orch director.Orchestrator, stage config.Stage, frames int) string {
	path := p.Config.ManifestPath
	if path == "auto" {
		path = director.ManifestPath(p.Config.OutputVideo, time.Now())
	}

	m := director.NewManifest(orch, stage, p.Config.InputPath, p.Config.OutputVideo)
	m.RunID = p.RunID
	m.RenderedFrames = frames

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Printf("[!] Не удалось создать папку для описания: %v", err)
		return ""
	}
	if err := director.WriteManifest(m, path); err != nil {
		log.Printf("[!] Не удалось записать описание рендера: %v", err)
		return ""
	}
	fmt.Printf("[*] Описание рендера: %s\n", path)
	return path
}

func (p *VideoProject) printStats(rep *Report) {
	fps := float64(rep.Frames) / rep.Total.Seconds()
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Run: %s\n"+
			"Total Time: %.2fs\n"+
			"Loading (CPU): %.2fs\n"+
			"Rendering + Encoding: %.2fs\n"+
			"Frames: %d/%d\n"+
			"Effective FPS: %.2f\n"+
			"RSS: %d MB | Host memory used: %.1f%%\n"+
			"Image pool: %d allocated, %d reused\n"+
			"----------------------------\n",
		p.Config.BuildVersion, p.RunID, rep.Total.Seconds(), rep.Load.Seconds(), rep.Render.Seconds(),
		rep.Frames, rep.Expected, fps, rep.Memory.RSS>>20, rep.Memory.HostUsedPc,
		rep.PoolAllocated, rep.PoolReused,
	)
	fmt.Print(report)

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Run: %s | Input: %s | Variant: %s | Slides: %d | Frames: %d | Total: %.2fs | Load: %.2fs | Render: %.2fs | FPS: %.2f | RSS: %dMB\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		p.RunID,
		filepath.Base(p.Config.InputPath),
		p.Config.Variant,
		rep.Slides,
		rep.Frames,
		rep.Total.Seconds(),
		rep.Load.Seconds(),
		rep.Render.Seconds(),
		fps,
		rep.Memory.RSS>>20,
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}

func releaseItems(items []director.Item) {
	for _, it := range items {
		it.Texture.Release()
	}
}
