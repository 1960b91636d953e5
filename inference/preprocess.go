package inference

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
)

// ImageNet channel statistics. The segmentation model was trained against
// inputs standardized with exactly these constants; they must not change.
var (
	channelMean = [3]float32{0.485, 0.456, 0.406}
	channelStd  = [3]float32{0.229, 0.224, 0.225}
)

// PrepareInput converts an arbitrary-size color image into the normalized
// CHW tensor the model expects and reports the image's original dimensions
// for later mask upscaling.
//
// The image is resized (not cropped) to 320x320 with Lanczos3, deliberately
// distorting the aspect ratio; the mask postprocessor applies the inverse
// distortion when stretching the output back to the original dimensions.
// Alpha, if present, is dropped. Each channel is standardized as
// (pixel/255 - mean[c]) / std[c].
//
// Arguments:
//   - img: The decoded image to prepare.
//   - data: The destination buffer, the backing data of a (1,3,320,320) tensor.
//
// Returns:
//   - int: The original image width.
//   - int: The original image height.
//   - error: An error if the destination buffer is too small.
func PrepareInput(img image.Image, data []float32) (int, int, error) {
	channelSize := InputSize * InputSize
	if len(data) < channelSize*3 {
		return 0, 0, fmt.Errorf("destination tensor only holds %d floats, needs %d (make sure it's the right shape!)",
			len(data), channelSize*3)
	}
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2 : channelSize*3]

	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()

	img = resize.Resize(InputSize, InputSize, img, resize.Lanczos3)

	i := 0
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			red[i] = (float32(r>>8)/255.0 - channelMean[0]) / channelStd[0]
			green[i] = (float32(g>>8)/255.0 - channelMean[1]) / channelStd[1]
			blue[i] = (float32(b>>8)/255.0 - channelMean[2]) / channelStd[2]
			i++
		}
	}
	return origW, origH, nil
}
