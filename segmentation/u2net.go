package segmentation

import (
	"context"
	"image"
	"sync"

	"go.uber.org/zap"

	"github.com/smartbg-ai/go-smartbg/inference"
)

// U2Net runs a pretrained U²-Net salient-object model through ONNX Runtime.
// The weights are loaded exactly once and shared read-only for the process
// lifetime; the session's bound tensors are reused, so inference calls are
// serialized on an internal mutex.
type U2Net struct {
	session *inference.Session
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewU2Net loads the model described by cfg. Failures are
// *inference.ModelLoadError and fatal for every model-dependent mode.
func NewU2Net(cfg inference.SessionConfig, logger *zap.Logger) (*U2Net, error) {
	session, err := inference.NewSession(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("segmentation model loaded",
		zap.String("path", cfg.ModelPath),
		zap.String("provider", string(cfg.Provider)))

	return &U2Net{session: session, logger: logger}, nil
}

// Infer produces the saliency map for img at model resolution. The output
// is copied out of the session's bound tensor, so the returned map stays
// valid across subsequent calls.
func (u *U2Net) Infer(ctx context.Context, img image.Image) (*SaliencyMap, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if _, _, err := inference.PrepareInput(img, u.session.Input.GetData()); err != nil {
		return nil, &inference.InferenceError{Reason: err}
	}

	if err := u.session.Run(); err != nil {
		return nil, err
	}

	out := u.session.Output.GetData()
	data := make([]float32, inference.InputSize*inference.InputSize)
	copy(data, out)

	return NewSaliencyMap(data, inference.InputSize, inference.InputSize), nil
}

// Close releases the underlying ONNX session.
func (u *U2Net) Close() {
	u.session.Close()
}
