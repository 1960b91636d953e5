package inference

import "fmt"

// ModelLoadError reports a missing or unloadable weights file. It is fatal
// for every model-dependent operation and must be surfaced to the user.
type ModelLoadError struct {
	Path   string
	Reason error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("failed to load model %s: %v", e.Path, e.Reason)
}

func (e *ModelLoadError) Unwrap() error { return e.Reason }

// InferenceError reports a failed forward pass, typically a tensor shape
// mismatch between the prepared input and the model.
type InferenceError struct {
	Reason error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Reason)
}

func (e *InferenceError) Unwrap() error { return e.Reason }
