package imageio

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 24))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 120
		img.Pix[i+1] = 80
		img.Pix[i+2] = 40
		img.Pix[i+3] = 255
	}
	return img
}

func TestSaveAndOpenRoundtrip(t *testing.T) {
	dir := t.TempDir()
	for _, ext := range []string{".png", ".jpg", ".bmp", ".tiff", ".webp"} {
		path := filepath.Join(dir, "img"+ext)
		require.NoError(t, Save(testImage(), path), "save %s", ext)

		img, err := Open(path)
		require.NoError(t, err, "open %s", ext)
		assert.Equal(t, 32, img.Bounds().Dx(), "width survives %s roundtrip", ext)
		assert.Equal(t, 24, img.Bounds().Dy())
	}
}

func TestSaveCreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "img.png")
	require.NoError(t, Save(testImage(), path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveUnknownExtensionFallsBackToPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.xyz")
	require.NoError(t, Save(testImage(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, format, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.png"))
	var unsupported *UnsupportedInputError
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, unsupported.Path, "nope.png")
}

func TestOpenUndecodableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := Open(path)
	var unsupported *UnsupportedInputError
	require.ErrorAs(t, err, &unsupported)
}

func TestSupportedExtensionIsCaseInsensitive(t *testing.T) {
	assert.True(t, SupportedExtension(".PNG"))
	assert.True(t, SupportedExtension(".JpEg"))
	assert.False(t, SupportedExtension(".txt"))
	assert.False(t, SupportedExtension(""))
}

func TestListImagesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "notes.txt", "c.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	paths, err := ListImages(dir)
	require.NoError(t, err)
	require.Len(t, paths, 3, "non-image files and directories are excluded")
	assert.Equal(t, filepath.Join(dir, "a.jpg"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b.png"), paths[1])
	assert.Equal(t, filepath.Join(dir, "c.webp"), paths[2])
}

func TestListImagesMissingDirectory(t *testing.T) {
	_, err := ListImages(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
