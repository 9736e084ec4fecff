package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/ivlev/photowall/internal/anim"
)

// ErrInvalid помечает ошибки валидации конфигурации.
var ErrInvalid = errors.New("invalid config")

const (
	VariantLinear  = "linear"
	VariantSpiral  = "spiral"
	VariantPushBox = "pushbox"
)

type Config struct {
	InputPath   string `mapstructure:"input"`
	OutputVideo string `mapstructure:"output"`
	Variant     string `mapstructure:"variant"`

	Width             int     `mapstructure:"width"`
	Height            int     `mapstructure:"height"`
	FPS               int     `mapstructure:"fps"`
	DisplayDuration   float64 `mapstructure:"display_duration"`
	AnimationDuration float64 `mapstructure:"animation_duration"`
	CleanupInterval   float64 `mapstructure:"cleanup_interval"`

	KenBurnsEndScale     float64 `mapstructure:"kenburns_end_scale"`
	SubjectMinConfidence float64 `mapstructure:"subject_min_confidence"`

	// Кривые ухода слайда на фон, имена из anim.ParseEasing
	PositionEasing string `mapstructure:"position_easing"`
	ScaleEasing    string `mapstructure:"scale_easing"`
	RotationEasing string `mapstructure:"rotation_easing"`

	Seed    int64 `mapstructure:"seed"`
	Workers int   `mapstructure:"workers"`
	DPI     int   `mapstructure:"dpi"`

	Detector        string  `mapstructure:"detector"`
	DetectorURL     string  `mapstructure:"detector_url"`
	DetectorTimeout float64 `mapstructure:"detector_timeout"`

	VideoEncoder string  `mapstructure:"video_encoder"`
	Quality      int     `mapstructure:"quality"`
	FadeIn       float64 `mapstructure:"fade_in"`
	FadeOut      float64 `mapstructure:"fade_out"`
	QRText       string  `mapstructure:"qr_text"`
	HighQuality  bool    `mapstructure:"high_quality"`

	ManifestPath string `mapstructure:"manifest"`
	DryRun       bool   `mapstructure:"dry_run"`
	ShowStats    bool   `mapstructure:"show_stats"`
	Debug        bool   `mapstructure:"debug"`
	BuildVersion string `mapstructure:"-"`
}

// Stage is the fixed render contract handed to orchestrators and the frame
// driver. It never changes during a run.
type Stage struct {
	Width  int
	Height int
	FPS    int

	DisplayDuration   float32
	AnimationDuration float32
	CleanupInterval   float32

	KenBurnsEndScale     float32
	SubjectMinConfidence float64

	PositionEasing anim.Easing
	ScaleEasing    anim.Easing
	RotationEasing anim.Easing
}

// DefaultStage mirrors the defaults of a 1080p/60 render.
func DefaultStage() Stage {
	return Stage{
		Width:                1920,
		Height:               1080,
		FPS:                  60,
		DisplayDuration:      2.0,
		AnimationDuration:    0.5,
		CleanupInterval:      0.2,
		KenBurnsEndScale:     0.9,
		SubjectMinConfidence: 0.8,
		PositionEasing:       anim.CubicOut,
		ScaleEasing:          anim.BackIn,
		RotationEasing:       anim.SineInOut,
	}
}

// FrameTime is the simulated time advanced per output frame.
func (s Stage) FrameTime() float32 {
	return 1.0 / float32(s.FPS)
}

// Aspect returns width/height.
func (s Stage) Aspect() float32 {
	return float32(s.Width) / float32(s.Height)
}

// Frames converts a duration into a whole number of output frames.
func (s Stage) Frames(d float32) int {
	return int(math.Round(float64(d) * float64(s.FPS)))
}

func (c *Config) Stage() Stage {
	return Stage{
		Width:                c.Width,
		Height:               c.Height,
		FPS:                  c.FPS,
		DisplayDuration:      float32(c.DisplayDuration),
		AnimationDuration:    float32(c.AnimationDuration),
		CleanupInterval:      float32(c.CleanupInterval),
		KenBurnsEndScale:     float32(c.KenBurnsEndScale),
		SubjectMinConfidence: c.SubjectMinConfidence,
		PositionEasing:       easingOr(c.PositionEasing, anim.CubicOut),
		ScaleEasing:          easingOr(c.ScaleEasing, anim.BackIn),
		RotationEasing:       easingOr(c.RotationEasing, anim.SineInOut),
	}
}

// easingOr разбирает имя кривой. Пустое или неизвестное имя даёт def:
// неизвестные имена отсекает Validate.
func easingOr(name string, def anim.Easing) anim.Easing {
	if e, err := anim.ParseEasing(name); err == nil {
		return e
	}
	return def
}

func setDefaults(v *viper.Viper) {
	st := DefaultStage()
	v.SetDefault("input", "")
	v.SetDefault("output", "")
	v.SetDefault("variant", VariantLinear)
	v.SetDefault("width", st.Width)
	v.SetDefault("height", st.Height)
	v.SetDefault("fps", st.FPS)
	v.SetDefault("display_duration", float64(st.DisplayDuration))
	v.SetDefault("animation_duration", float64(st.AnimationDuration))
	v.SetDefault("cleanup_interval", float64(st.CleanupInterval))
	v.SetDefault("kenburns_end_scale", float64(st.KenBurnsEndScale))
	v.SetDefault("subject_min_confidence", st.SubjectMinConfidence)
	v.SetDefault("position_easing", st.PositionEasing.Name())
	v.SetDefault("scale_easing", st.ScaleEasing.Name())
	v.SetDefault("rotation_easing", st.RotationEasing.Name())
	v.SetDefault("seed", 0)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("dpi", 150)
	v.SetDefault("detector", "none")
	v.SetDefault("detector_url", "")
	v.SetDefault("detector_timeout", 10.0)
	v.SetDefault("video_encoder", "")
	v.SetDefault("quality", 0)
	v.SetDefault("fade_in", 0.0)
	v.SetDefault("fade_out", 0.0)
	v.SetDefault("qr_text", "")
	v.SetDefault("high_quality", false)
	v.SetDefault("manifest", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("show_stats", false)
	v.SetDefault("debug", false)
}

// Load reads defaults, then the config file (explicit path, $PHOTOWALL_CONFIG
// or ./photowall.yaml when present), then PHOTOWALL_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path == "" {
		path = os.Getenv("PHOTOWALL_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("photowall")
	}

	v.SetEnvPrefix("PHOTOWALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Явно указанный файл обязан существовать
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.Variant {
	case VariantLinear, VariantSpiral, VariantPushBox:
	default:
		return fmt.Errorf("%w: unknown variant %q", ErrInvalid, c.Variant)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: resolution %dx%d", ErrInvalid, c.Width, c.Height)
	}
	// yuv420p требует чётных размеров
	if c.Width%2 != 0 || c.Height%2 != 0 {
		return fmt.Errorf("%w: resolution %dx%d must be even", ErrInvalid, c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps %d", ErrInvalid, c.FPS)
	}
	if c.DisplayDuration < 0 || c.AnimationDuration < 0 || c.CleanupInterval < 0 {
		return fmt.Errorf("%w: negative phase duration", ErrInvalid)
	}
	if c.KenBurnsEndScale <= 0 || c.KenBurnsEndScale > 1 {
		return fmt.Errorf("%w: kenburns_end_scale %.3f outside (0, 1]", ErrInvalid, c.KenBurnsEndScale)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.FadeIn < 0 || c.FadeOut < 0 {
		return fmt.Errorf("%w: negative fade", ErrInvalid)
	}
	for key, name := range map[string]string{
		"position_easing": c.PositionEasing,
		"scale_easing":    c.ScaleEasing,
		"rotation_easing": c.RotationEasing,
	} {
		if name == "" {
			continue
		}
		if _, err := anim.ParseEasing(name); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
		}
	}
	if c.Detector == "http" && c.DetectorURL == "" {
		return fmt.Errorf("%w: detector_url is required for the http detector", ErrInvalid)
	}
	return nil
}

// FilterParams описывает выходной поток для генерации -vf цепочки энкодера.
type FilterParams struct {
	Width, Height int
	FPS           int
	TotalDuration float64
	FadeIn        float64
	FadeOut       float64
	Debug         bool
}
