// Package config - YAML configuration with full defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Model   ModelConfig   `mapstructure:"model"`
	Output  OutputConfig  `mapstructure:"output"`
	Mask    MaskConfig    `mapstructure:"mask"`
	Blur    BlurConfig    `mapstructure:"blur"`
	Webcam  WebcamConfig  `mapstructure:"webcam"`
	Resize  ResizeConfig  `mapstructure:"resize"`
}

// LogConfig selects the logger profile.
type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

// ModelConfig describes the segmentation model and its runtime.
type ModelConfig struct {
	// Path to the ONNX weights file, loaded once per process.
	Path string `mapstructure:"path"`
	// InputName and OutputName are the model's tensor names.
	InputName  string `mapstructure:"input_name"`
	OutputName string `mapstructure:"output_name"`
	// Provider selects the execution provider: cpu, coreml, cuda or openvino.
	Provider string `mapstructure:"provider"`
	// SharedLibrary overrides the onnxruntime shared library path.
	SharedLibrary string `mapstructure:"shared_library"`
	// IntraOpThreads and InterOpThreads configure onnxruntime parallelism.
	// Zero means the runtime default.
	IntraOpThreads int `mapstructure:"intra_op_threads"`
	InterOpThreads int `mapstructure:"inter_op_threads"`
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// MaskConfig tunes mask binarization for the hard-edge modes.
type MaskConfig struct {
	BinarizeThreshold uint8 `mapstructure:"binarize_threshold"`
	ErodeIterations   int   `mapstructure:"erode_iterations"`
}

// BlurConfig tunes the blurred-background mode.
type BlurConfig struct {
	Sigma float64 `mapstructure:"sigma"`
}

// WebcamConfig tunes the live capture loop.
type WebcamConfig struct {
	DeviceID      int     `mapstructure:"device_id"`
	FrameWidth    int     `mapstructure:"frame_width"`
	FrameHeight   int     `mapstructure:"frame_height"`
	RecordingFPS  float64 `mapstructure:"recording_fps"`
	RecordingPath string  `mapstructure:"recording_path"`
	SnapshotPath  string  `mapstructure:"snapshot_path"`
	Mirror        bool    `mapstructure:"mirror"`
	Brightness    float64 `mapstructure:"brightness"`
}

// ResizeConfig holds the smart-resize defaults.
type ResizeConfig struct {
	Width      int  `mapstructure:"width"`
	Height     int  `mapstructure:"height"`
	AspectLock bool `mapstructure:"aspect_lock"`
}

// Load reads configuration from a YAML file, applying defaults for any
// missing keys.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// New loads config.yaml from the working directory, falling back to the
// built-in defaults when the file does not exist.
func New() *Config {
	cfg, err := Load("config.yaml")
	if err != nil {
		return Default()
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.mode", "debug")

	v.SetDefault("model.path", "model/u2net.onnx")
	v.SetDefault("model.input_name", "input.1")
	v.SetDefault("model.output_name", "d0")
	v.SetDefault("model.provider", "cpu")
	v.SetDefault("model.shared_library", "")
	v.SetDefault("model.intra_op_threads", 4)
	v.SetDefault("model.inter_op_threads", 2)

	v.SetDefault("output.dir", "outputs")

	v.SetDefault("mask.binarize_threshold", 128)
	v.SetDefault("mask.erode_iterations", 1)

	v.SetDefault("blur.sigma", 25.0)

	v.SetDefault("webcam.device_id", 0)
	v.SetDefault("webcam.frame_width", 640)
	v.SetDefault("webcam.frame_height", 480)
	v.SetDefault("webcam.recording_fps", 20.0)
	v.SetDefault("webcam.recording_path", "outputs/recorded_video.avi")
	v.SetDefault("webcam.snapshot_path", "outputs/snapshot.png")
	v.SetDefault("webcam.mirror", false)
	v.SetDefault("webcam.brightness", 0)

	v.SetDefault("resize.width", 800)
	v.SetDefault("resize.height", 800)
	v.SetDefault("resize.aspect_lock", true)
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Unmarshal of pure defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}
