package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessUploadScalesDown(t *testing.T) {
	dir := t.TempDir()

	v, err := ProcessUpload(bytes.NewReader(pngBytes(t, 800, 400)), dir, MaxIconSize, MaxIconSize)
	require.NoError(t, err)

	assert.Equal(t, 256, v.Width)
	assert.Equal(t, 128, v.Height)
	assert.FileExists(t, filepath.Join(dir, v.File))
	if v.WebPFile != "" {
		assert.FileExists(t, filepath.Join(dir, v.WebPFile))
	}
}

func TestProcessUploadKeepsSmallImages(t *testing.T) {
	v, err := ProcessUpload(bytes.NewReader(pngBytes(t, 64, 32)), t.TempDir(), MaxIconSize, MaxIconSize)
	require.NoError(t, err)

	assert.Equal(t, 64, v.Width)
	assert.Equal(t, 32, v.Height)
}

func TestProcessUploadRejectsGarbage(t *testing.T) {
	_, err := ProcessUpload(bytes.NewReader([]byte("not an image")), t.TempDir(), MaxIconSize, MaxIconSize)
	assert.Error(t, err)
}

func TestRemoveDeletesBothFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.png"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.webp"), []byte("x"), 0644))

	Remove(dir, "abc.png")
	Remove(dir, "../escape.png")

	assert.NoFileExists(t, filepath.Join(dir, "abc.png"))
	assert.NoFileExists(t, filepath.Join(dir, "abc.webp"))
	assert.Equal(t, "abc.webp", WebPName("abc.png"))
}
