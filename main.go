package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/smartbg-ai/go-smartbg/composite"
	"github.com/smartbg-ai/go-smartbg/config"
	"github.com/smartbg-ai/go-smartbg/imageio"
	"github.com/smartbg-ai/go-smartbg/inference"
	"github.com/smartbg-ai/go-smartbg/pipeline"
	"github.com/smartbg-ai/go-smartbg/segmentation"
	"github.com/smartbg-ai/go-smartbg/util"
	"github.com/smartbg-ai/go-smartbg/webcam"
)

func main() {
	var (
		configPath string
		modeFlag   string
		inputPath  string
		outputDir  string
		background string
		bgImage    string
		colorHex   string
		blurSigma  float64
		width      int
		height     int
		aspectLock bool
		showWindow bool
		record     bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&modeFlag, "mode", "transparent", "Operation: transparent, solid, replace, blur, resize, batch, webcam")
	flag.StringVar(&inputPath, "input", "", "Input image, or directory for batch mode")
	flag.StringVar(&outputDir, "output-dir", "", "Directory for processed images (default from config)")
	flag.StringVar(&background, "background", "transparent", "Background treatment for batch/webcam: transparent, solid, replace, blur")
	flag.StringVar(&bgImage, "bg-image", "", "Replacement background image for the replace treatment")
	flag.StringVar(&colorHex, "color", "#0000FF", "Solid background color as #RRGGBB")
	flag.Float64Var(&blurSigma, "blur-sigma", 0, "Gaussian blur strength for the blur treatment (default from config)")
	flag.IntVar(&width, "width", 0, "Target width for resize mode (default from config)")
	flag.IntVar(&height, "height", 0, "Target height for resize mode (default from config)")
	flag.BoolVar(&aspectLock, "keep-aspect", true, "Preserve aspect ratio in resize mode")
	flag.BoolVar(&showWindow, "show-window", false, "Show the live preview window in webcam mode")
	flag.BoolVar(&record, "record", false, "Start recording immediately in webcam mode")
	flag.Parse()

	var cfg *config.Config
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.New()
	}
	if err := util.InitLogger(cfg.Log.Mode); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer util.Sync()
	logger := util.Logger

	mode, err := pipeline.ParseMode(modeFlag)
	if err != nil {
		logger.Fatal("invalid mode", zap.Error(err))
	}

	color, err := parseHexColor(colorHex)
	if err != nil {
		logger.Fatal("invalid color", zap.Error(err))
	}

	// Flags win; unset flags fall back to the config file.
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}
	if blurSigma == 0 {
		blurSigma = cfg.Blur.Sigma
	}
	if width == 0 {
		width = cfg.Resize.Width
	}
	if height == 0 {
		height = cfg.Resize.Height
	}

	params := pipeline.Params{
		Color:          color,
		BackgroundPath: bgImage,
		BlurSigma:      blurSigma,
		Width:          width,
		Height:         height,
		AspectLock:     aspectLock,
	}
	if mode == pipeline.ModeBatch || mode == pipeline.ModeWebcam {
		params.Background, err = pipeline.ParseMode(background)
		if err != nil {
			logger.Fatal("invalid background treatment", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := composite.Options{
		BinarizeThreshold: cfg.Mask.BinarizeThreshold,
		ErodeIterations:   cfg.Mask.ErodeIterations,
	}

	var pipe *pipeline.Pipeline
	if mode.NeedsModel() {
		provider, err := inference.ParseProviderBackend(cfg.Model.Provider)
		if err != nil {
			logger.Fatal("invalid execution provider", zap.Error(err))
		}
		seg, err := segmentation.NewU2Net(inference.SessionConfig{
			ModelPath:      cfg.Model.Path,
			InputName:      cfg.Model.InputName,
			OutputName:     cfg.Model.OutputName,
			Provider:       provider,
			SharedLibrary:  cfg.Model.SharedLibrary,
			IntraOpThreads: cfg.Model.IntraOpThreads,
			InterOpThreads: cfg.Model.InterOpThreads,
		}, logger)
		if err != nil {
			logger.Fatal("cannot load model", zap.Error(err))
		}
		defer seg.Close()
		pipe = pipeline.New(seg, opts, logger)
	} else {
		pipe = pipeline.New(nil, opts, logger)
	}

	switch mode {
	case pipeline.ModeWebcam:
		cam, err := webcam.Open(cfg.Webcam, pipe, logger)
		if err != nil {
			logger.Fatal("cannot open webcam", zap.Error(err))
		}
		defer cam.Close()
		if record {
			if err := cam.StartRecording(); err != nil {
				logger.Fatal("cannot start recording", zap.Error(err))
			}
		}
		if err := cam.Run(ctx, params, showWindow); err != nil && ctx.Err() == nil {
			logger.Fatal("webcam loop failed", zap.Error(err))
		}
	case pipeline.ModeBatch:
		if inputPath == "" {
			logger.Fatal("batch mode requires -input directory")
		}
		outputs, err := pipe.ProcessBatch(ctx, inputPath, outputDir, params)
		if err != nil {
			logger.Fatal("batch run failed", zap.Error(err))
		}
		logger.Info("batch complete", zap.Int("processed", len(outputs)))
	default:
		if inputPath == "" {
			logger.Fatal("missing -input image")
		}
		outPath := pipeline.OutputPath(outputDir, inputPath, mode, params)
		if err := pipe.ProcessFile(ctx, inputPath, outPath, mode, params); err != nil {
			var unsupported *imageio.UnsupportedInputError
			if errors.As(err, &unsupported) {
				logger.Fatal("unsupported input", zap.String("path", unsupported.Path), zap.NamedError("reason", unsupported.Reason))
			}
			logger.Fatal("processing failed", zap.Error(err))
		}
		logger.Info("done", zap.String("output", outPath))
	}
}

// parseHexColor accepts #RRGGBB or RRGGBB.
func parseHexColor(s string) (composite.SolidColor, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return composite.SolidColor{}, fmt.Errorf("color %q is not RRGGBB", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return composite.SolidColor{}, fmt.Errorf("color %q is not RRGGBB", s)
	}
	return composite.SolidColor{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}
