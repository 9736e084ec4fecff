package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// HTTPDetector отправляет изображение внешнему сервису поиска объектов.
// Запрос: POST image/png. Ответ: {"detections":[{"x","y","w","h","confidence","label"}]}
// в пикселях присланного изображения.
type HTTPDetector struct {
	URL     string
	Client  *http.Client
	Retries uint64
}

func NewHTTPDetector(url string, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{
		URL:     url,
		Client:  &http.Client{Timeout: timeout},
		Retries: 2,
	}
}

type httpDetection struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	W          int     `json:"w"`
	H          int     `json:"h"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
}

type httpResponse struct {
	Detections []httpDetection `json:"detections"`
}

func (d *HTTPDetector) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		return nil, fmt.Errorf("кодирование изображения: %w", err)
	}
	payload := body.Bytes()

	var resp httpResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "image/png")

		res, err := d.Client.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		if res.StatusCode >= 500 {
			return fmt.Errorf("сервис детекции вернул %s", res.Status)
		}
		if res.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
			return backoff.Permanent(fmt.Errorf("сервис детекции вернул %s: %s", res.Status, bytes.TrimSpace(msg)))
		}
		if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
			return backoff.Permanent(fmt.Errorf("разбор ответа детекции: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), d.Retries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}

	origin := img.Bounds().Min
	dets := make([]Detection, 0, len(resp.Detections))
	for _, hd := range resp.Detections {
		dets = append(dets, Detection{
			Rect:       image.Rect(hd.X, hd.Y, hd.X+hd.W, hd.Y+hd.H).Add(origin),
			Label:      hd.Label,
			Confidence: hd.Confidence,
		})
	}
	return dets, nil
}
