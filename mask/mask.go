// Package mask - saliency map normalization and binary mask operations.
package mask

import (
	"image"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"

	"github.com/smartbg-ai/go-smartbg/segmentation"
)

// DefaultThreshold is the binarization cutoff used by the hard-edge modes.
const DefaultThreshold uint8 = 128

// Postprocess converts a raw saliency map into an 8-bit mask at the target
// dimensions: min-max normalize across the whole map, scale to [0,255] with
// truncation, then stretch to (width, height) with interpolation.
//
// A constant saliency map (max == min) would divide by zero; the defined
// fallback is an all-zero mask, so no NaN or Inf can reach pixel arithmetic.
func Postprocess(sal *segmentation.SaliencyMap, width, height int) *image.Gray {
	data := sal.Data()

	lo := data[0]
	hi := data[0]
	for _, v := range data {
		lo = math32.Min(lo, v)
		hi = math32.Max(hi, v)
	}

	native := image.NewGray(image.Rect(0, 0, sal.Width(), sal.Height()))
	if hi > lo {
		scale := hi - lo
		for i, v := range data {
			native.Pix[i] = uint8((v - lo) / scale * 255)
		}
	}
	// hi == lo leaves the mask all zero.

	return Resize(native, width, height)
}

// Resize stretches a mask to (width, height) using Catmull-Rom
// interpolation. Returns the input unchanged when dimensions already match.
func Resize(m *image.Gray, width, height int) *image.Gray {
	b := m.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return m
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), m, b, draw.Src, nil)
	return dst
}

// Binarize thresholds a continuous mask into exactly {0, 255}. Values
// strictly greater than threshold become foreground.
func Binarize(m *image.Gray, threshold uint8) *image.Gray {
	out := image.NewGray(m.Bounds())
	for i, v := range m.Pix {
		if v > threshold {
			out.Pix[i] = 255
		}
	}
	return out
}

// Erode shrinks a binary mask's foreground by one pixel ring per iteration
// using a full 3x3 structuring element. Pixels outside the mask count as
// background, so the image border always erodes. Used by the hard-edge
// modes to suppress bright halo artifacts from partial-alpha edge pixels.
func Erode(m *image.Gray, iterations int) *image.Gray {
	src := m
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()

	for it := 0; it < iterations; it++ {
		dst := image.NewGray(b)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if src.Pix[y*src.Stride+x] == 0 {
					continue
				}
				keep := true
				for dy := -1; dy <= 1 && keep; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := x+dx, y+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h || src.Pix[ny*src.Stride+nx] == 0 {
							keep = false
							break
						}
					}
				}
				if keep {
					dst.Pix[y*dst.Stride+x] = 255
				}
			}
		}
		src = dst
	}
	return src
}
