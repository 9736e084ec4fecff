package effects

import (
	"fmt"
	"strings"

	"github.com/ivlev/photowall/internal/config"
	"github.com/ivlev/photowall/internal/system"
)

// Effect строит цепочку -vf, которую ffmpeg применяет к готовым кадрам.
type Effect interface {
	GenerateFilter(params config.FilterParams) string
}

type DefaultEffect struct {
	// HasFilter проверяет поддержку фильтра сборкой ffmpeg.
	HasFilter func(name string) bool
}

func NewDefaultEffect() *DefaultEffect {
	return &DefaultEffect{HasFilter: system.CheckFilterSupport}
}

// GenerateFilter: затемнение в начале и в конце ролика и счётчик кадров в
// режиме отладки. Пустая строка означает, что фильтры не нужны.
func (e *DefaultEffect) GenerateFilter(p config.FilterParams) string {
	var chain []string

	fadeIn, fadeOut := p.FadeIn, p.FadeOut
	// Затемнения не должны перекрываться на коротком ролике.
	if p.TotalDuration > 0 && fadeIn+fadeOut > p.TotalDuration {
		k := p.TotalDuration / (fadeIn + fadeOut)
		fadeIn *= k
		fadeOut *= k
	}

	if fadeIn > 0 {
		chain = append(chain, fmt.Sprintf("fade=t=in:st=0:d=%.3f", fadeIn))
	}
	if fadeOut > 0 && p.TotalDuration > 0 {
		chain = append(chain, fmt.Sprintf("fade=t=out:st=%.3f:d=%.3f", p.TotalDuration-fadeOut, fadeOut))
	}

	if p.Debug && e.HasFilter != nil && e.HasFilter("drawtext") {
		chain = append(chain, "drawtext=text='Frame %{frame_num} | %{pts\\:hms}':x=10:y=10:fontsize=24:fontcolor=yellow:box=1:boxcolor=black@0.5")
	}

	return strings.Join(chain, ",")
}
