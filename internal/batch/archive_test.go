package batch

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipEntryNames(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestCreateZip_FlatDeflateEntries(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	a := filepath.Join(dir, "a_translated.png")
	b := filepath.Join(sub, "b_translated.jpg")
	require.NoError(t, os.WriteFile(a, []byte("content-a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("content-b"), 0o644))

	dest := filepath.Join(dir, "translated_images.zip")
	require.NoError(t, CreateZip([]string{a, b}, dest))

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 2)
	// Flat: base names only, even for files from subdirectories.
	assert.Equal(t, "a_translated.png", zr.File[0].Name)
	assert.Equal(t, "b_translated.jpg", zr.File[1].Name)
	for _, f := range zr.File {
		assert.Equal(t, zip.Deflate, f.Method)
	}

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, []byte("content-b"), got)
}

func TestCreateZip_MissingInput(t *testing.T) {
	dir := t.TempDir()
	err := CreateZip([]string{filepath.Join(dir, "gone.png")}, filepath.Join(dir, "out.zip"))
	assert.Error(t, err)
}
