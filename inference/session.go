package inference

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// InputSize is the fixed spatial resolution of the segmentation model.
const InputSize = 320

var ortInit sync.Once

// SessionConfig describes the model file and runtime knobs for a session.
type SessionConfig struct {
	// ModelPath is the location of the ONNX weights file.
	ModelPath string
	// InputName and OutputName are the model's tensor names.
	InputName  string
	OutputName string
	// Provider selects the execution path; CPU when empty.
	Provider ProviderBackend
	// SharedLibrary overrides the onnxruntime shared library location.
	SharedLibrary string
	// IntraOpThreads and InterOpThreads configure graph parallelism;
	// zero keeps the runtime default.
	IntraOpThreads int
	InterOpThreads int
}

// Session wraps an ONNX Runtime session with its preallocated input and
// output tensors. The input tensor is shape (1,3,320,320) and the output
// (1,1,320,320); both are reused across runs, so a Session supports one
// inference at a time and callers must serialize access.
type Session struct {
	Session *ort.AdvancedSession
	Input   *ort.Tensor[float32]
	Output  *ort.Tensor[float32]
}

// NewSession loads the model exactly once for the life of the returned
// session. A missing or corrupt weights file yields *ModelLoadError.
//
// Order of operations:
//  1. Weights and shared library existence checks.
//  2. One-time ONNX Runtime environment initialization.
//  3. Fixed-shape tensor allocation.
//  4. Session options: threading, graph optimization, execution provider.
//  5. Session creation binding the tensors.
func NewSession(cfg SessionConfig) (*Session, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, &ModelLoadError{Path: cfg.ModelPath, Reason: err}
	}

	libPath := SharedLibPath(cfg.SharedLibrary)
	if _, err := os.Stat(libPath); os.IsNotExist(err) {
		return nil, &ModelLoadError{
			Path:   cfg.ModelPath,
			Reason: errors.Wrapf(err, "onnxruntime shared library not found at %s", libPath),
		}
	}

	ortInit.Do(func() {
		ort.SetSharedLibraryPath(libPath)
	})
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, &ModelLoadError{Path: cfg.ModelPath, Reason: errors.Wrap(err, "initialize ORT environment")}
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, InputSize, InputSize))
	if err != nil {
		return nil, &ModelLoadError{Path: cfg.ModelPath, Reason: errors.Wrap(err, "create input tensor")}
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1, InputSize, InputSize))
	if err != nil {
		inputTensor.Destroy()
		return nil, &ModelLoadError{Path: cfg.ModelPath, Reason: errors.Wrap(err, "create output tensor")}
	}

	fail := func(step string, cause error) (*Session, error) {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, &ModelLoadError{Path: cfg.ModelPath, Reason: errors.Wrap(cause, step)}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return fail("create session options", err)
	}
	defer options.Destroy()

	options.SetIntraOpNumThreads(cfg.IntraOpThreads)
	options.SetInterOpNumThreads(cfg.InterOpThreads)
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	switch cfg.Provider {
	case CoreMLProviderBackend:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			return fail("enable CoreML", err)
		}
	case CUDAProviderBackend:
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return fail("create CUDA options", err)
		}
		defer cudaOpts.Destroy()
		if err := options.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			return fail("enable CUDA", err)
		}
	case OpenVINOProviderBackend:
		if err := options.AppendExecutionProviderOpenVINO(map[string]string{
			"device_type": "CPU",
			"precision":   "FP32",
		}); err != nil {
			return fail("enable OpenVINO", err)
		}
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		return fail("create ORT session", err)
	}

	return &Session{
		Session: session,
		Input:   inputTensor,
		Output:  outputTensor,
	}, nil
}

// Run executes one forward pass over the bound tensors.
func (s *Session) Run() error {
	if err := s.Session.Run(); err != nil {
		return &InferenceError{Reason: err}
	}
	return nil
}

// Close releases the native session and tensors.
func (s *Session) Close() {
	if s.Input != nil {
		s.Input.Destroy()
		s.Input = nil
	}
	if s.Output != nil {
		s.Output.Destroy()
		s.Output = nil
	}
	if s.Session != nil {
		s.Session.Destroy()
		s.Session = nil
	}
}
