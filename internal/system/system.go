package system

import (
	"fmt"
	"log"
	"os/exec"
	"strings"
	"syscall"
)

// minOpenFiles мягкий лимит открытых файлов, которого хватает на загрузку
// и ffmpeg.
const minOpenFiles = 2048

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	cur, ok := raiseLimit(uint64(rLimit.Cur), uint64(rLimit.Max), minOpenFiles)
	if !ok {
		return
	}
	rLimit.Cur = cur

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Системный лимит открытых файлов увеличен до %d\n", rLimit.Cur)
	}
}

// raiseLimit возвращает новый мягкий лимит, не выше жёсткого. ok == false,
// если текущий уже не меньше want или поднять его некуда.
func raiseLimit(cur, hard, want uint64) (uint64, bool) {
	if cur >= want {
		return cur, false
	}
	next := min(want, hard)
	if next <= cur {
		return cur, false
	}
	return next, true
}

// GetBestH264Encoder опрашивает ffmpeg один раз и выбирает аппаратный
// энкодер, если он есть.
func GetBestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(encoders string) string {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(encoders, name) {
			return name
		}
	}
	return "libx264"
}

// DefaultQuality подбирает значение качества по умолчанию для энкодера.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // Хорошее качество для VideoToolbox
	case "h264_nvenc":
		return 28 // Эквивалент CRF для NVENC
	default:
		return 23 // Стандартный CRF для x264
	}
}

// CheckFilterSupport проверяет наличие фильтра в сборке ffmpeg.
func CheckFilterSupport(filter string) bool {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-filters").CombinedOutput()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), " "+filter+" ")
}
