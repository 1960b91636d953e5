// Package pipeline - mode dispatch over the segmentation-to-composite flow.
package pipeline

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/smartbg-ai/go-smartbg/composite"
	"github.com/smartbg-ai/go-smartbg/imageio"
)

// Mode is one of the closed set of user-selectable operations.
type Mode string

const (
	// ModeTransparent emits a PNG whose alpha channel is the soft mask.
	ModeTransparent Mode = "transparent"
	// ModeSolid replaces the background with a solid color.
	ModeSolid Mode = "solid"
	// ModeReplace replaces the background with another image.
	ModeReplace Mode = "replace"
	// ModeBlur replaces the background with a blurred copy of the image.
	ModeBlur Mode = "blur"
	// ModeResize is a pure geometric resize; it never touches the model.
	ModeResize Mode = "resize"
	// ModeBatch applies one of the background modes to a directory.
	ModeBatch Mode = "batch"
	// ModeWebcam applies one of the background modes to live frames.
	ModeWebcam Mode = "webcam"
)

// ParseMode validates a mode string from the CLI or config.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTransparent:
		return ModeTransparent, nil
	case ModeSolid:
		return ModeSolid, nil
	case ModeReplace:
		return ModeReplace, nil
	case ModeBlur:
		return ModeBlur, nil
	case ModeResize:
		return ModeResize, nil
	case ModeBatch:
		return ModeBatch, nil
	case ModeWebcam:
		return ModeWebcam, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// NeedsModel reports whether the mode requires the segmentation model.
func (m Mode) NeedsModel() bool {
	return m != ModeResize
}

// Params is the immutable snapshot of user-selected parameters taken at
// submission time. Batch and webcam carry the background sub-mode in
// Background; the other modes ignore it.
type Params struct {
	// Background selects the per-image background treatment for batch and
	// webcam runs (one of transparent, solid, replace, blur).
	Background Mode
	// Color is the solid background color.
	Color composite.SolidColor
	// BackgroundPath is the replacement background image.
	BackgroundPath string
	// BlurSigma is the Gaussian blur strength for the blurred mode.
	BlurSigma float64
	// Width, Height and AspectLock drive the smart-resize mode.
	Width, Height int
	AspectLock    bool
}

// BackgroundMissingError reports that the replacement mode was selected
// without choosing a background image. It aborts the affected image only.
type BackgroundMissingError struct{}

func (*BackgroundMissingError) Error() string {
	return "replacement background selected but no background image chosen"
}

// backgroundMode resolves the effective background treatment for a mode:
// batch and webcam delegate to the sub-mode in Params.
func backgroundMode(mode Mode, params Params) Mode {
	if mode == ModeBatch || mode == ModeWebcam {
		return params.Background
	}
	return mode
}

// SpecFor builds the composite background spec for one image. The
// replacement background is loaded and resized to the foreground's exact
// dimensions here, so the compositor never sees a size mismatch.
func SpecFor(mode Mode, params Params, fg image.Image) (composite.BackgroundSpec, error) {
	switch backgroundMode(mode, params) {
	case ModeTransparent:
		return composite.Transparent{}, nil
	case ModeSolid:
		return composite.SolidColor{R: params.Color.R, G: params.Color.G, B: params.Color.B}, nil
	case ModeReplace:
		if params.BackgroundPath == "" {
			return nil, &BackgroundMissingError{}
		}
		bg, err := imageio.Open(params.BackgroundPath)
		if err != nil {
			return nil, err
		}
		b := fg.Bounds()
		bg = imaging.Resize(bg, b.Dx(), b.Dy(), imaging.Lanczos)
		return composite.ReplacementImage{Image: bg}, nil
	case ModeBlur:
		return composite.Blurred{Sigma: params.BlurSigma}, nil
	}
	return nil, fmt.Errorf("mode %q has no background spec", mode)
}

// OutputPath derives a deterministic output name from the input's base
// name. Transparent output forces a PNG suffix so alpha survives encoding;
// the other modes keep the input extension under a processed_ prefix.
func OutputPath(outputDir, inputPath string, mode Mode, params Params) string {
	base := filepath.Base(inputPath)
	if backgroundMode(mode, params) == ModeTransparent {
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		return filepath.Join(outputDir, stem+"_transparent.png")
	}
	return filepath.Join(outputDir, "processed_"+base)
}
