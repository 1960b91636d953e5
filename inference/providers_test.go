package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProviderBackend(t *testing.T) {
	cases := map[string]ProviderBackend{
		"":         CPUProviderBackend,
		"cpu":      CPUProviderBackend,
		" CUDA ":   CUDAProviderBackend,
		"CoreML":   CoreMLProviderBackend,
		"openvino": OpenVINOProviderBackend,
	}
	for in, want := range cases {
		got, err := ParseProviderBackend(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got)
	}

	_, err := ParseProviderBackend("tensorrt")
	require.Error(t, err)
}

func TestSharedLibPathOverride(t *testing.T) {
	assert.Equal(t, "/opt/ort/libonnxruntime.so", SharedLibPath("/opt/ort/libonnxruntime.so"))
	assert.NotEmpty(t, SharedLibPath(""), "the platform default is never empty")
}

func TestNewSessionMissingModel(t *testing.T) {
	_, err := NewSession(SessionConfig{ModelPath: "does/not/exist.onnx"})
	var loadErr *ModelLoadError
	require.ErrorAs(t, err, &loadErr, "a missing weights file is a model load failure")
	assert.Equal(t, "does/not/exist.onnx", loadErr.Path)
}
