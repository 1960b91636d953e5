package pipeline

import (
	"image"

	"github.com/disintegration/imaging"
)

// SmartResize performs a pure geometric resize to (width, height) with
// Lanczos resampling. With aspectLock the target box is shrunk along one
// axis so the original aspect ratio is preserved. An image already at the
// effective target dimensions is returned unchanged, making the operation
// idempotent.
func SmartResize(img image.Image, width, height int, aspectLock bool) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	if aspectLock && srcW > 0 && srcH > 0 {
		originalRatio := float64(srcW) / float64(srcH)
		targetRatio := float64(width) / float64(height)
		if originalRatio > targetRatio {
			height = int(float64(width) / originalRatio)
		} else {
			width = int(float64(height) * originalRatio)
		}
	}

	if srcW == width && srcH == height {
		return img
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
