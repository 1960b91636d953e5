package composite

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/smartbg-ai/go-smartbg/mask"
)

// Options tunes the hard-edge modes. Zero values disable erosion and use
// the default binarization threshold.
type Options struct {
	// BinarizeThreshold is the cutoff for the hard-edge modes; values
	// strictly above it count as foreground. Defaults to mask.DefaultThreshold.
	BinarizeThreshold uint8
	// ErodeIterations shrinks the binary foreground by one pixel ring per
	// iteration to suppress edge fringing.
	ErodeIterations int
}

// DefaultOptions returns the standard tuning: threshold 128, one round
// of erosion.
func DefaultOptions() Options {
	return Options{BinarizeThreshold: mask.DefaultThreshold, ErodeIterations: 1}
}

// Composite blends the foreground against the background described by spec
// using the normalized mask m (0=background, 255=foreground).
//
// If the mask dimensions drifted from the image's (rounding in upstream
// resizes), the mask is resized to the image just before blending — never
// the reverse.
func Composite(fg image.Image, m *image.Gray, spec BackgroundSpec, opts Options) (image.Image, error) {
	if opts.BinarizeThreshold == 0 {
		opts.BinarizeThreshold = mask.DefaultThreshold
	}

	src := toNRGBA(fg)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	m = mask.Resize(m, w, h)

	switch bg := spec.(type) {
	case Transparent:
		return transparent(src, m), nil
	case SolidColor:
		binary := mask.Erode(mask.Binarize(m, opts.BinarizeThreshold), opts.ErodeIterations)
		return solid(src, binary, bg), nil
	case ReplacementImage:
		bgBounds := bg.Image.Bounds()
		if bgBounds.Dx() != w || bgBounds.Dy() != h {
			return nil, &DimensionMismatchError{
				ForegroundWidth:  w,
				ForegroundHeight: h,
				BackgroundWidth:  bgBounds.Dx(),
				BackgroundHeight: bgBounds.Dy(),
			}
		}
		return blend(src, toNRGBA(bg.Image), m), nil
	case Blurred:
		binary := mask.Erode(mask.Binarize(m, opts.BinarizeThreshold), opts.ErodeIterations)
		blurred := toNRGBA(imaging.Blur(src, bg.Sigma))
		return maskedCopy(src, blurred, binary), nil
	}
	return nil, fmt.Errorf("unknown background spec %T", spec)
}

// transparent writes the soft mask verbatim into the alpha channel; RGB is
// the foreground unchanged.
func transparent(fg *image.NRGBA, m *image.Gray) *image.NRGBA {
	out := image.NewNRGBA(fg.Bounds())
	copy(out.Pix, fg.Pix)
	w, h := fg.Bounds().Dx(), fg.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x*4+3] = m.Pix[y*m.Stride+x]
		}
	}
	return out
}

// solid performs the hard cutover fg*a + c*(1-a) where a is 0 or 1 after
// binarization: every output pixel is either the original or the color,
// never an intermediate value.
func solid(fg *image.NRGBA, binary *image.Gray, c SolidColor) *image.NRGBA {
	out := image.NewNRGBA(fg.Bounds())
	w, h := fg.Bounds().Dx(), fg.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := y*out.Stride + x*4
			if binary.Pix[y*binary.Stride+x] != 0 {
				copy(out.Pix[o:o+3], fg.Pix[o:o+3])
			} else {
				out.Pix[o] = c.R
				out.Pix[o+1] = c.G
				out.Pix[o+2] = c.B
			}
			out.Pix[o+3] = 255
		}
	}
	return out
}

// blend soft-blends fg over bg: result = fg*a + bg*(1-a), a = mask/255.
// The integer blend truncates, never rounds.
func blend(fg, bg *image.NRGBA, m *image.Gray) *image.NRGBA {
	out := image.NewNRGBA(fg.Bounds())
	w, h := fg.Bounds().Dx(), fg.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := y*out.Stride + x*4
			a := uint32(m.Pix[y*m.Stride+x])
			for c := 0; c < 3; c++ {
				out.Pix[o+c] = uint8((uint32(fg.Pix[o+c])*a + uint32(bg.Pix[o+c])*(255-a)) / 255)
			}
			out.Pix[o+3] = 255
		}
	}
	return out
}

// maskedCopy selects per pixel: foreground where the binary mask is set,
// alternate elsewhere. No weighted blend.
func maskedCopy(fg, alt *image.NRGBA, binary *image.Gray) *image.NRGBA {
	out := image.NewNRGBA(fg.Bounds())
	w, h := fg.Bounds().Dx(), fg.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := y*out.Stride + x*4
			if binary.Pix[y*binary.Stride+x] != 0 {
				copy(out.Pix[o:o+3], fg.Pix[o:o+3])
			} else {
				copy(out.Pix[o:o+3], alt.Pix[o:o+3])
			}
			out.Pix[o+3] = 255
		}
	}
	return out
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	// Reuse only when the layout is the canonical zero-origin, packed one;
	// the pixel loops above index fg and out with the same stride.
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
