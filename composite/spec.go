// Package composite - alpha compositing of a segmented foreground against
// a new background.
package composite

import (
	"fmt"
	"image"
)

// BackgroundSpec is the tagged variant describing what replaces the
// background. Exactly one Composite entry point consumes every variant, so
// no mode carries its own blending code.
type BackgroundSpec interface {
	backgroundSpec()
}

// Transparent keeps the foreground and writes the soft mask into the alpha
// channel. Output must be saved in a format that preserves alpha.
type Transparent struct{}

func (Transparent) backgroundSpec() {}

// SolidColor fills the background with a single color using a hard,
// binarized cutover.
type SolidColor struct {
	R, G, B uint8
}

func (SolidColor) backgroundSpec() {}

// ReplacementImage blends the foreground over another image using the soft
// mask. The image must already be resized to the foreground's dimensions.
type ReplacementImage struct {
	Image image.Image
}

func (ReplacementImage) backgroundSpec() {}

// Blurred composites the foreground over a Gaussian-blurred copy of itself.
// Sigma controls the blur strength.
type Blurred struct {
	Sigma float64
}

func (Blurred) backgroundSpec() {}

// DimensionMismatchError reports a replacement background whose dimensions
// do not match the foreground. The caller is responsible for resizing the
// background before compositing.
type DimensionMismatchError struct {
	ForegroundWidth, ForegroundHeight int
	BackgroundWidth, BackgroundHeight int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("background %dx%d does not match foreground %dx%d",
		e.BackgroundWidth, e.BackgroundHeight, e.ForegroundWidth, e.ForegroundHeight)
}
