package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/smartbg-ai/go-smartbg/imageio"
)

// ProcessBatch applies the chosen background treatment to every decodable
// image directly under dir. Failures are isolated: a bad item is logged and
// skipped, and the remaining batch always runs to completion. Returns one
// output path per success.
//
// All four background treatments are supported in batch mode.
func (p *Pipeline) ProcessBatch(ctx context.Context, dir, outputDir string, params Params) ([]string, error) {
	inputs, err := imageio.ListImages(dir)
	if err != nil {
		return nil, err
	}

	outputs := make([]string, 0, len(inputs))
	for _, inputPath := range inputs {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}

		outPath := OutputPath(outputDir, inputPath, ModeBatch, params)
		if err := p.ProcessFile(ctx, inputPath, outPath, ModeBatch, params); err != nil {
			p.logger.Warn("skipping batch item",
				zap.String("input", inputPath),
				zap.Error(err))
			continue
		}
		outputs = append(outputs, outPath)
	}

	p.logger.Info("batch complete",
		zap.String("dir", dir),
		zap.Int("total", len(inputs)),
		zap.Int("succeeded", len(outputs)))
	return outputs, nil
}
