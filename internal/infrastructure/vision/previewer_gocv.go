//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"

	"gocv.io/x/gocv"

	"food-bot/internal/domain/port"
)

// Previewer строит превью через OpenCV.
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
	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer func() { mat.Close() }()

	if mat.Cols() > p.MaxSide || mat.Rows() > p.MaxSide {
		scale := float64(p.MaxSide) / float64(max(mat.Cols(), mat.Rows()))
		newW := int(float64(mat.Cols()) * scale)
		newH := int(float64(mat.Rows()) * scale)
		resized := gocv.NewMat()
		gocv.Resize(mat, &resized, image.Pt(newW, newH), 0, 0, gocv.InterpolationArea)
		mat.Close()
		mat = resized
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.Quality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

var _ port.ImagePreviewer = (*Previewer)(nil)
