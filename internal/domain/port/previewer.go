package port

// ImagePreviewer интерфейс построения превью изображения
type ImagePreviewer interface {
	// Preview возвращает уменьшенную JPEG-копию изображения
	Preview(imageData []byte) ([]byte, error)
}
