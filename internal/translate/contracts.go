package translate

import (
	"context"

	"github.com/posterops/poster-translator/internal/codec"
)

// Request carries one encoded image and the instruction describing the
// desired transformation.
type Request struct {
	Image       codec.EncodedImage
	Instruction string

	// APIKey, when set, overrides the client's configured credential for
	// this request only.
	APIKey string
}

// Result is a successfully translated image.
type Result struct {
	Bytes    []byte
	MIMEType string
}

// ImageTranslator is the interface the batch processor depends on.
type ImageTranslator interface {
	TranslateImage(ctx context.Context, req Request) (*Result, error)
}
