// Package codec handles the byte-level plumbing between files on disk and
// the base64/JSON transport the translation service expects.
package codec

import (
	"encoding/base64"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/posterops/poster-translator/constants"
	"github.com/posterops/poster-translator/internal/common"
)

// EncodedImage is an image ready for transport inside a JSON payload.
type EncodedImage struct {
	MIMEType string
	Base64   string
}

// extByMIME maps result mime types to output file extensions.
var extByMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

// MIMETypeOf infers a MIME type from the file extension. Anything that is
// unknown or not an image falls back to image/jpeg.
func MIMETypeOf(path string) string {
	mt := mime.TypeByExtension(filepath.Ext(path))
	if mt == "" {
		// mime.TypeByExtension depends on the host table; cover the
		// common image types ourselves.
		switch constants.NormalizeExt(filepath.Ext(path)) {
		case "jpg", "jpeg":
			return "image/jpeg"
		case "png":
			return "image/png"
		case "webp":
			return "image/webp"
		case "gif":
			return "image/gif"
		case "heic":
			return "image/heic"
		default:
			return "image/jpeg"
		}
	}
	// Strip parameters such as "; charset=utf-8".
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if !strings.HasPrefix(mt, "image/") {
		return "image/jpeg"
	}
	return mt
}

// EncodeImage reads the file at path and returns its contents base64-encoded
// together with the inferred MIME type.
func EncodeImage(path string) (EncodedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EncodedImage{}, common.NewAppError("READ_IMAGE", err.Error(), common.ErrIO)
	}
	return EncodedImage{
		MIMEType: MIMETypeOf(path),
		Base64:   base64.StdEncoding.EncodeToString(data),
	}, nil
}

// DecodeImage is the inverse of the base64 encoding applied by EncodeImage.
func DecodeImage(b64 string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, common.NewAppError("DECODE_IMAGE", err.Error(), common.ErrDecode)
	}
	return data, nil
}

// ExtensionForMIME returns the output file extension for a result mime type.
// Unknown or empty types default to ".png".
func ExtensionForMIME(mimeType string) string {
	if ext, ok := extByMIME[strings.ToLower(strings.TrimSpace(mimeType))]; ok {
		return ext
	}
	return ".png"
}
