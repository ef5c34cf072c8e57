package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateImage_NilIsNoop(t *testing.T) {
	require.NoError(t, ValidateImage(nil))
}

func TestValidateImage_EmptyMimeDependsOnExtension(t *testing.T) {
	for _, ext := range AllowedExtensions {
		a := &ImageAsset{Name: "photo." + ext, Size: 100}
		require.NoError(t, ValidateImage(a), ext)

		upper := &ImageAsset{Name: "PHOTO." + ext, Size: 100}
		require.NoError(t, ValidateImage(upper), ext)
	}

	for _, name := range []string{"photo.heic", "photo", "photo.jpg.exe", "notes.txt"} {
		err := ValidateImage(&ImageAsset{Name: name, Size: 100})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), name)
		require.Contains(t, verr.Reason, "unsupported file type")
	}
}

func TestValidateImage_DeclaredMime(t *testing.T) {
	cases := []struct {
		name string
		mime string
		ok   bool
	}{
		{"photo.jpg", "image/jpeg", true},
		{"photo", "image/png", true},
		{"photo.webp", "image/x-unknown", true},
		{"photo.heic", "image/heic", false},
		{"photo.jpg", "application/octet-stream", false},
		{"photo.png", "text/plain", false},
	}

	for _, tc := range cases {
		err := ValidateImage(&ImageAsset{Name: tc.name, MimeType: tc.mime, Size: 1024})
		if tc.ok {
			require.NoError(t, err, tc.name)
			continue
		}
		require.Error(t, err, tc.name)
		require.Contains(t, err.Error(), tc.mime)
	}
}

func TestValidateImage_TooLarge(t *testing.T) {
	ok := &ImageAsset{Name: "photo.jpg", MimeType: "image/jpeg", Size: MaxImageSize}
	require.NoError(t, ValidateImage(ok))

	for _, a := range []*ImageAsset{
		{Name: "photo.jpg", MimeType: "image/jpeg", Size: MaxImageSize + 1},
		{Name: "photo.png", Size: MaxImageSize + 1},
		{Name: "photo.bmp", MimeType: "", Data: make([]byte, MaxImageSize+1)},
	} {
		err := ValidateImage(a)
		require.Error(t, err)
		require.Equal(t, "file too large, max 10 MB", err.Error())
	}
}

func TestImageAsset_Extension(t *testing.T) {
	require.Equal(t, "jpeg", (&ImageAsset{Name: "a.b.JPEG"}).Extension())
	require.Equal(t, "", (&ImageAsset{Name: "noext"}).Extension())
}
