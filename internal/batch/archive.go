package batch

import (
	"archive/zip"
	"os"
	"path/filepath"

	"github.com/posterops/poster-translator/internal/common"
)

// CreateZip writes a flat deflate archive at dest containing each named file
// under its base name. No directory entries are created.
func CreateZip(paths []string, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return common.WrapError(err, "create zip")
	}

	zw := zip.NewWriter(f)
	for _, p := range paths {
		if err := addZipEntry(zw, p); err != nil {
			_ = zw.Close()
			_ = f.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return common.WrapError(err, "close zip")
	}
	return f.Close()
}

func addZipEntry(zw *zip.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return common.WrapError(err, "read "+filepath.Base(path))
	}
	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return common.WrapError(err, "add zip entry")
	}
	if _, err := w.Write(data); err != nil {
		return common.WrapError(err, "write zip entry")
	}
	return nil
}
