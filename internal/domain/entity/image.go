package entity

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

// MaxImageSize — максимальный размер загружаемого изображения (10 МБ).
const MaxImageSize = 10 * 1024 * 1024

// AllowedExtensions — допустимые расширения файлов изображений.
var AllowedExtensions = []string{"jpg", "jpeg", "png", "webp", "gif", "bmp", "tiff"}

// AllowedMimeTypes — допустимые MIME-типы изображений.
var AllowedMimeTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/webp",
	"image/gif",
	"image/bmp",
	"image/tiff",
}

// ImageAsset — выбранный пользователем файл. Живёт только в памяти.
type ImageAsset struct {
	Name     string // имя файла
	MimeType string // заявленный MIME-тип, может быть пустым
	Size     int64  // размер в байтах
	Data     []byte // содержимое
}

// Extension возвращает расширение файла в нижнем регистре без точки.
func (a *ImageAsset) Extension() string {
	ext := path.Ext(a.Name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// SizeBytes возвращает размер файла; если размер не указан, берётся длина данных.
func (a *ImageAsset) SizeBytes() int64 {
	if a.Size > 0 {
		return a.Size
	}
	return int64(len(a.Data))
}

// ValidationError — локальная ошибка проверки файла, до обращения к сети.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ValidateImage проверяет тип, расширение и размер файла.
// Для nil возвращает nil: отсутствие файла не считается ошибкой.
func ValidateImage(a *ImageAsset) error {
	if a == nil {
		return nil
	}

	ext := a.Extension()
	extAllowed := slices.Contains(AllowedExtensions, ext)
	allowed := strings.Join(AllowedExtensions, ", ")

	// Некоторые мобильные клиенты не передают MIME-тип, тогда решает только расширение.
	mime := strings.ToLower(strings.TrimSpace(a.MimeType))
	if mime == "" {
		if !extAllowed {
			return &ValidationError{Reason: fmt.Sprintf("unsupported file type, allowed: %s", allowed)}
		}
	} else {
		mimeAllowed := slices.Contains(AllowedMimeTypes, mime)
		if !strings.HasPrefix(mime, "image/") || (!mimeAllowed && !extAllowed) {
			return &ValidationError{Reason: fmt.Sprintf("unsupported file type %q, allowed: %s", a.MimeType, allowed)}
		}
	}

	if a.SizeBytes() > MaxImageSize {
		return &ValidationError{Reason: "file too large, max 10 MB"}
	}

	return nil
}
