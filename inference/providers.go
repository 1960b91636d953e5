// Package inference - ONNX Runtime sessions and execution providers.
package inference

import (
	"fmt"
	"runtime"
	"strings"
)

// ProviderBackend selects the ONNX Runtime execution provider. Output shape
// is identical on every backend; only throughput and the last bits of the
// values may differ.
type ProviderBackend string

const (
	// CPUProviderBackend is the portable default.
	CPUProviderBackend ProviderBackend = "cpu"
	// CoreMLProviderBackend uses the Apple Neural Engine / GPU.
	CoreMLProviderBackend ProviderBackend = "coreml"
	// CUDAProviderBackend uses an NVIDIA GPU.
	CUDAProviderBackend ProviderBackend = "cuda"
	// OpenVINOProviderBackend uses Intel's OpenVINO toolkit.
	OpenVINOProviderBackend ProviderBackend = "openvino"
)

// ParseProviderBackend maps a config string onto a known backend.
func ParseProviderBackend(s string) (ProviderBackend, error) {
	switch ProviderBackend(strings.ToLower(strings.TrimSpace(s))) {
	case "", CPUProviderBackend:
		return CPUProviderBackend, nil
	case CoreMLProviderBackend:
		return CoreMLProviderBackend, nil
	case CUDAProviderBackend:
		return CUDAProviderBackend, nil
	case OpenVINOProviderBackend:
		return OpenVINOProviderBackend, nil
	}
	return "", fmt.Errorf("unknown execution provider %q", s)
}

// SharedLibPath returns the platform default location of the onnxruntime
// shared library. An explicit configured path takes precedence.
func SharedLibPath(override string) string {
	if override != "" {
		return override
	}
	if runtime.GOOS == "windows" {
		return "third_party/onnxruntime.dll"
	}
	if runtime.GOOS == "darwin" {
		return "third_party/libonnxruntime.dylib"
	}
	if runtime.GOARCH == "arm64" {
		return "third_party/onnxruntime_arm64.so"
	}
	return "third_party/onnxruntime.so"
}
