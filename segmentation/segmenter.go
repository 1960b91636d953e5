// Package segmentation - salient-object segmentation backends.
package segmentation

import (
	"context"
	"image"

	"gorgonia.org/tensor"
)

// Segmenter produces a saliency map for an image. It is a single-method
// capability so alternate segmentation backends can be swapped in without
// touching the compositor.
type Segmenter interface {
	Infer(ctx context.Context, img image.Image) (*SaliencyMap, error)
}

// SaliencyMap is the raw model output: a single-channel float32 grid at
// model-native resolution. Values are unbounded until normalized by the
// mask postprocessor.
type SaliencyMap struct {
	dense *tensor.Dense
}

// NewSaliencyMap wraps row-major float32 data of the given dimensions.
// The data is not copied; the caller must not reuse it.
func NewSaliencyMap(data []float32, width, height int) *SaliencyMap {
	return &SaliencyMap{
		dense: tensor.New(
			tensor.WithShape(height, width),
			tensor.WithBacking(data),
		),
	}
}

// Width returns the horizontal resolution of the map.
func (m *SaliencyMap) Width() int { return m.dense.Shape()[1] }

// Height returns the vertical resolution of the map.
func (m *SaliencyMap) Height() int { return m.dense.Shape()[0] }

// Data returns the map's backing values in row-major order.
func (m *SaliencyMap) Data() []float32 { return m.dense.Data().([]float32) }

// At returns the raw saliency value at (x, y).
func (m *SaliencyMap) At(x, y int) float32 {
	return m.Data()[y*m.Width()+x]
}
