package codec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posterops/poster-translator/internal/common"
)

func TestMIMETypeOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"poster.png", "image/png"},
		{"poster.PNG", "image/png"},
		{"banner.jpg", "image/jpeg"},
		{"banner.jpeg", "image/jpeg"},
		{"a/b/photo.webp", "image/webp"},
		{"anim.gif", "image/gif"},
		{"file.unknownext", "image/jpeg"},
		{"noextension", "image/jpeg"},
		{"report.pdf", "image/jpeg"}, // not an image -> fallback
		{"notes.txt", "image/jpeg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MIMETypeOf(tt.path), "path %q", tt.path)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	content := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01, 0xFF, 0xFE, 0x7F}
	path := filepath.Join(t.TempDir(), "tiny.png")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	enc, err := EncodeImage(path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", enc.MIMEType)

	got, err := DecodeImage(enc.Base64)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestEncodeImage_MissingFile(t *testing.T) {
	_, err := EncodeImage(filepath.Join(t.TempDir(), "nope.jpg"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrIO))
}

func TestDecodeImage_Malformed(t *testing.T) {
	_, err := DecodeImage("!!! not base64 !!!")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDecode))
}

func TestExtensionForMIME(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/jpeg", ".jpg"},
		{"image/jpg", ".jpg"},
		{"IMAGE/PNG", ".png"},
		{"image/webp", ".webp"},
		{"image/gif", ".gif"},
		{"image/heic", ".heic"},
		{"image/tiff", ".png"},
		{"", ".png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtensionForMIME(tt.mime), "mime %q", tt.mime)
	}
}
