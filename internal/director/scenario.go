package director

import (
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/photowall/internal/config"
	"github.com/ivlev/photowall/internal/layout"
	"github.com/ivlev/photowall/internal/slide"
)

// ManifestVersion версия формата файла-описания рендера.
const ManifestVersion = "1.0"

// Manifest описание одного рендера: параметры сцены и итоговое место
// каждого слайда.
type Manifest struct {
	Version        string          `yaml:"version"`
	RunID          string          `yaml:"run_id"`
	CreatedAt      time.Time       `yaml:"created_at"`
	Variant        string          `yaml:"variant"`
	Input          string          `yaml:"input"`
	Output         string          `yaml:"output"`
	Stage          StageInfo       `yaml:"stage"`
	ExpectedFrames int             `yaml:"expected_frames"`
	RenderedFrames int             `yaml:"rendered_frames"`
	Slides         []ManifestSlide `yaml:"slides"`
}

// StageInfo параметры сцены.
type StageInfo struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	FPS       int     `yaml:"fps"`
	Display   float32 `yaml:"display"`
	Animation float32 `yaml:"animation"`
	Cleanup   float32 `yaml:"cleanup"`

	PositionEasing string `yaml:"position_easing,omitempty"`
	ScaleEasing    string `yaml:"scale_easing,omitempty"`
	RotationEasing string `yaml:"rotation_easing,omitempty"`
}

// ManifestSlide итоговое состояние одного слайда.
type ManifestSlide struct {
	Index   int              `yaml:"index"`
	Source  string           `yaml:"source"`
	Cell    *layout.Cell     `yaml:"cell,omitempty"`
	Final   *slide.Transform `yaml:"final,omitempty"`
	Crop    *slide.Crop      `yaml:"crop,omitempty"`
	Subject *Rectangle       `yaml:"subject,omitempty"`
}

// Rectangle рамка в пикселях изображения.
type Rectangle struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// NewManifest заполняет описание по оркестратору. Число отрендеренных
// кадров дописывается после прогона.
func NewManifest(o Orchestrator, stage config.Stage, input, output string) *Manifest {
	entries := o.Entries()
	return &Manifest{
		Version:   ManifestVersion,
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Variant:   o.Name(),
		Input:     input,
		Output:    output,
		Stage: StageInfo{
			Width:     stage.Width,
			Height:    stage.Height,
			FPS:       stage.FPS,
			Display:   stage.DisplayDuration,
			Animation: stage.AnimationDuration,
			Cleanup:   stage.CleanupInterval,

			PositionEasing: stage.PositionEasing.Name(),
			ScaleEasing:    stage.ScaleEasing.Name(),
			RotationEasing: stage.RotationEasing.Name(),
		},
		ExpectedFrames: ExpectedFrames(o.Name(), len(entries), stage),
		Slides:         entries,
	}
}
