// Package imageio - decoding and encoding of common raster formats.
package imageio

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	// Registered for image.Decode.
	_ "image/gif"

	_ "golang.org/x/image/webp"
)

// UnsupportedInputError reports an input path that could not be read or
// decoded as an image.
type UnsupportedInputError struct {
	Path   string
	Reason error
}

func (e *UnsupportedInputError) Error() string {
	return "unsupported input " + e.Path + ": " + e.Reason.Error()
}

func (e *UnsupportedInputError) Unwrap() error { return e.Reason }

// supportedExtensions are the raster formats accepted as inputs.
var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// SupportedExtension reports whether the file extension names a decodable
// raster format. The comparison is case-insensitive.
func SupportedExtension(ext string) bool {
	return supportedExtensions[strings.ToLower(ext)]
}

// Open decodes the image at path. Failures are reported as
// *UnsupportedInputError so batch callers can skip the item.
func Open(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &UnsupportedInputError{Path: path, Reason: err}
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, &UnsupportedInputError{Path: path, Reason: err}
	}
	return img, nil
}

// Decode decodes an image from r using the registered format set.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	return img, nil
}

// Save encodes img to path, choosing the encoder from the file extension
// (.png, .jpg/.jpeg, .webp, .bmp, .tif/.tiff). Parent directories are
// created if absent. Images carrying meaningful alpha should be saved as
// PNG; the other encoders discard the alpha channel.
func Save(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create output directory %s", dir)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create output file %s", path)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(file, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 95})
	case ".webp":
		err = webp.Encode(file, img, &webp.Options{Lossless: true})
	case ".bmp":
		err = bmp.Encode(file, img)
	case ".tif", ".tiff":
		err = tiff.Encode(file, img, nil)
	default:
		// Unknown extensions get PNG so alpha is never silently lost.
		err = png.Encode(file, img)
	}
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	return nil
}

// ListImages returns the paths of all decodable images directly under dir,
// sorted by file name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory %s", dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if SupportedExtension(filepath.Ext(entry.Name())) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(paths)
	return paths, nil
}
