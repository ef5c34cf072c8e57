//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"food-bot/internal/domain/port"
)

// Previewer строит превью на чистом Go (без OpenCV).
type Previewer struct {
	MaxSide int // наибольшая сторона превью в пикселях
	Quality int // качество JPEG
}

// NewPreviewer создаёт превьюер с наибольшей стороной maxSide.
func NewPreviewer(maxSide int) *Previewer {
	return &Previewer{MaxSide: maxSide, Quality: 85}
}

// Preview уменьшает изображение до MaxSide и кодирует его в JPEG.
func (p *Previewer) Preview(imageData []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > p.MaxSide || b.Dy() > p.MaxSide {
		img = imaging.Fit(img, p.MaxSide, p.MaxSide, imaging.Box)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

var _ port.ImagePreviewer = (*Previewer)(nil)
