package batch

import (
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// thumbnailSize is the bounding box for gallery previews.
const thumbnailSize = 240

// makeThumbnail renders a small JPEG preview next to the output image for the
// gallery view. Failures are the caller's to tolerate; the full-size output
// already exists.
func makeThumbnail(srcPath string) (string, error) {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return "", err
	}
	thumb := imaging.Thumbnail(img, thumbnailSize, thumbnailSize, imaging.Lanczos)
	dst := strings.TrimSuffix(srcPath, filepath.Ext(srcPath)) + "_thumb.jpg"
	if err := imaging.Save(thumb, dst); err != nil {
		return "", err
	}
	return dst, nil
}
