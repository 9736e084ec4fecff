package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ivlev/photowall/internal/analyzer"
	"github.com/ivlev/photowall/internal/config"
	"github.com/ivlev/photowall/internal/effects"
	"github.com/ivlev/photowall/internal/engine"
	"github.com/ivlev/photowall/internal/source"
	"github.com/ivlev/photowall/internal/system"
)

// version подставляется при сборке: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	configPtr := flag.String("config", "", "Путь к YAML-конфигу (по умолчанию ./photowall.yaml или $PHOTOWALL_CONFIG)")
	inputPtr := flag.String("input", "", "Папка с фотографиями или PDF (можно передать первым позиционным аргументом)")
	outputPtr := flag.String("output", "", "Путь к видео (по умолчанию <имя папки>.mp4)")
	variantPtr := flag.String("variant", config.VariantLinear, "Сценарий: linear, spiral, pushbox")
	presetPtr := flag.String("preset", "", "Пресет формата: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	widthPtr := flag.Int("width", 1920, "Ширина")
	heightPtr := flag.Int("height", 1080, "Высота")
	fpsPtr := flag.Int("fps", 60, "FPS")
	displayPtr := flag.Float64("display", 2.0, "Время показа одного слайда (сек)")
	animationPtr := flag.Float64("animation", 0.5, "Длительность анимации перехода (сек)")
	cleanupPtr := flag.Float64("cleanup", 0.2, "Интервал скрытия слайдов в конце (сек)")
	kenBurnsPtr := flag.Float64("kenburns-end", 0.9, "Конечный масштаб кадрирования Ken Burns без найденного объекта")
	seedPtr := flag.Int64("seed", 0, "Seed генератора (0 - от текущего времени)")
	workersPtr := flag.Int("workers", 0, "Потоки загрузки (0 - по числу CPU)")
	dpiPtr := flag.Int("dpi", 150, "DPI для страниц PDF")
	detectorPtr := flag.String("detector", "none", "Детектор объекта для pushbox: none, contrast, http")
	detectorURLPtr := flag.String("detector-url", "", "URL внешнего детектора (для -detector http)")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	fadeInPtr := flag.Float64("fade-in", 0, "Затемнение в начале (сек)")
	fadeOutPtr := flag.Float64("fade-out", 0, "Затемнение в конце (сек)")
	qrPtr := flag.String("qr", "", "Текст QR-кода в правом нижнем углу")
	manifestPtr := flag.String("manifest", "", "Путь к YAML-манифесту прогона (auto - рядом с видео)")
	dryRunPtr := flag.Bool("dry-run", false, "Прогнать сценарий без кодирования")
	statsPtr := flag.Bool("stats", false, "Вывести статистику и дописать benchmark.log")
	debugPtr := flag.Bool("debug", false, "Отладочный оверлей с номером кадра")
	hqPtr := flag.Bool("hq", false, "Ресэмплинг Catmull-Rom вместо билинейного (медленнее)")

	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}
	cfg.BuildVersion = version

	// Флаги перекрывают конфиг, только если заданы явно
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.InputPath = *inputPtr
		case "output":
			cfg.OutputVideo = *outputPtr
		case "variant":
			cfg.Variant = *variantPtr
		case "width":
			cfg.Width = *widthPtr
		case "height":
			cfg.Height = *heightPtr
		case "fps":
			cfg.FPS = *fpsPtr
		case "display":
			cfg.DisplayDuration = *displayPtr
		case "animation":
			cfg.AnimationDuration = *animationPtr
		case "cleanup":
			cfg.CleanupInterval = *cleanupPtr
		case "kenburns-end":
			cfg.KenBurnsEndScale = *kenBurnsPtr
		case "seed":
			cfg.Seed = *seedPtr
		case "workers":
			if *workersPtr > 0 {
				cfg.Workers = *workersPtr
			}
		case "dpi":
			cfg.DPI = *dpiPtr
		case "detector":
			cfg.Detector = *detectorPtr
		case "detector-url":
			cfg.DetectorURL = *detectorURLPtr
		case "quality":
			cfg.Quality = *qualityPtr
		case "fade-in":
			cfg.FadeIn = *fadeInPtr
		case "fade-out":
			cfg.FadeOut = *fadeOutPtr
		case "qr":
			cfg.QRText = *qrPtr
		case "manifest":
			cfg.ManifestPath = *manifestPtr
		case "dry-run":
			cfg.DryRun = *dryRunPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		case "debug":
			cfg.Debug = *debugPtr
		case "hq":
			cfg.HighQuality = *hqPtr
		}
	})

	switch *presetPtr {
	case "":
	case "16:9":
		cfg.Width, cfg.Height = 1920, 1080
	case "9:16":
		cfg.Width, cfg.Height = 1080, 1920
	case "4:5":
		cfg.Width, cfg.Height = 1080, 1350
	default:
		log.Fatalf("[-] Неизвестный пресет: %s", *presetPtr)
	}

	if cfg.InputPath == "" && flag.NArg() > 0 {
		cfg.InputPath = flag.Arg(0)
	}
	if cfg.InputPath == "" {
		fmt.Fprintln(os.Stderr, "Использование: photowall [флаги] <папка с фото>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if cfg.OutputVideo == "" {
		cfg.OutputVideo = source.OutputName(cfg.InputPath)
	}

	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
	}
	if cfg.VideoEncoder != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", cfg.VideoEncoder)
	}
	if cfg.Quality == 0 {
		cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := source.Open(cfg.InputPath)
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации источника: %v", err)
	}
	defer src.Close()

	det, err := analyzer.NewDetector(cfg.Detector, analyzer.Options{
		URL:     cfg.DetectorURL,
		Timeout: time.Duration(cfg.DetectorTimeout * float64(time.Second)),
	})
	if err != nil {
		log.Fatalf("[-] Ошибка детектора: %v", err)
	}

	project := engine.NewVideoProject(cfg, src, effects.NewDefaultEffect(), det)
	rep, err := project.Run(ctx)
	if err != nil {
		// log.Fatalf не выполняет defer
		src.Close()
		if errors.Is(err, context.Canceled) {
			log.Fatalf("[-] Прервано после %d кадров", frames(rep))
		}
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}

	if cfg.DryRun {
		fmt.Printf("[+++] Холостой прогон: %d слайдов, %d кадров\n", rep.Slides, rep.Frames)
		return
	}
	fmt.Printf("[+++] Успех! Результат: %s\n", cfg.OutputVideo)
}

func frames(rep *engine.Report) int {
	if rep == nil {
		return 0
	}
	return rep.Frames
}
