package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".gif":  true,
}

// IsImage проверяет расширение файла без учёта регистра.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

type ImageSource struct {
	paths []string
}

func NewImageSource(path string) (*ImageSource, error) {
	if err := checkDir(path); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsImage(entry.Name()) {
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoImages)
	}
	sort.Strings(paths)

	return &ImageSource{paths: paths}, nil
}

func (s *ImageSource) PageCount() int {
	return len(s.paths)
}

// RenderPage декодирует файл и для JPEG поворачивает его по EXIF.
// dpi для растровых файлов не используется.
func (s *ImageSource) RenderPage(index int, dpi int) (image.Image, error) {
	path := s.paths[index]
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("декодирование %s: %w", filepath.Base(path), err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".jpg" && ext != ".jpeg" {
		return img, nil
	}

	orientation, err := ReadOrientation(path)
	if err != nil {
		log.Printf("[!] EXIF %s: %v, без поворота", filepath.Base(path), err)
		return img, nil
	}
	return Orient(img, orientation), nil
}

func (s *ImageSource) Name(index int) string {
	return filepath.Base(s.paths[index])
}

func (s *ImageSource) Close() error {
	return nil
}
