package source

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ErrNoImages нет ни одного подходящего файла во входной папке.
var ErrNoImages = errors.New("no images found")

type Source interface {
	PageCount() int
	RenderPage(index int, dpi int) (image.Image, error)
	// Name короткое имя страницы для логов и файла-описания.
	Name(index int) string
	Close() error
}

// Open выбирает источник по пути: PDF-файл или папка с фотографиями.
func Open(path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewFitzPDFSource(path)
	}
	return NewImageSource(path)
}

// OutputName имя итогового видео: <имя входа>.mp4.
func OutputName(input string) string {
	base := filepath.Base(filepath.Clean(input))
	if strings.EqualFold(filepath.Ext(base), ".pdf") {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base + ".mp4"
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("открытие PDF %s: %w", path, err)
	}
	if doc.NumPage() == 0 {
		doc.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNoImages)
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

// RenderPage открывает документ заново: fitz.Document нельзя делить между
// горутинами загрузки.
func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Name(index int) string {
	return fmt.Sprintf("%s#%d", filepath.Base(f.path), index+1)
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

// checkDir убеждается, что путь существует и это папка.
func checkDir(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s не является папкой", path)
	}
	return nil
}
