package pipeline

import (
	"context"
	"image"

	"go.uber.org/zap"

	"github.com/smartbg-ai/go-smartbg/composite"
	"github.com/smartbg-ai/go-smartbg/imageio"
	"github.com/smartbg-ai/go-smartbg/mask"
	"github.com/smartbg-ai/go-smartbg/segmentation"
)

// Pipeline drives one image through preprocess, inference, mask
// postprocessing and compositing. The segmenter is shared read-only; the
// pipeline itself holds no per-image state and is safe for reuse.
type Pipeline struct {
	seg    segmentation.Segmenter
	opts   composite.Options
	logger *zap.Logger
}

// New assembles a pipeline around a segmentation backend.
func New(seg segmentation.Segmenter, opts composite.Options, logger *zap.Logger) *Pipeline {
	return &Pipeline{seg: seg, opts: opts, logger: logger}
}

// Mask infers and postprocesses the normalized mask for img, sized exactly
// to the image's dimensions.
func (p *Pipeline) Mask(ctx context.Context, img image.Image) (*image.Gray, error) {
	sal, err := p.seg.Infer(ctx, img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return mask.Postprocess(sal, b.Dx(), b.Dy()), nil
}

// Apply composites img against the background described by spec, inferring
// the mask first.
func (p *Pipeline) Apply(ctx context.Context, img image.Image, spec composite.BackgroundSpec) (image.Image, error) {
	m, err := p.Mask(ctx, img)
	if err != nil {
		return nil, err
	}
	return composite.Composite(img, m, spec, p.opts)
}

// ProcessFile runs one input image through the selected mode and writes the
// result to outPath. Smart resize bypasses the segmentation pipeline
// entirely.
func (p *Pipeline) ProcessFile(ctx context.Context, inputPath, outPath string, mode Mode, params Params) error {
	img, err := imageio.Open(inputPath)
	if err != nil {
		return err
	}

	var result image.Image
	if backgroundMode(mode, params) == ModeResize || mode == ModeResize {
		result = SmartResize(img, params.Width, params.Height, params.AspectLock)
	} else {
		spec, err := SpecFor(mode, params, img)
		if err != nil {
			return err
		}
		result, err = p.Apply(ctx, img, spec)
		if err != nil {
			return err
		}
	}

	if err := imageio.Save(result, outPath); err != nil {
		return err
	}

	p.logger.Info("processed image",
		zap.String("input", inputPath),
		zap.String("output", outPath),
		zap.String("mode", string(mode)))
	return nil
}
