// Package webcam - live capture with per-frame background replacement.
package webcam

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/smartbg-ai/go-smartbg/config"
	"github.com/smartbg-ai/go-smartbg/imageio"
	"github.com/smartbg-ai/go-smartbg/pipeline"
)

// Capture runs the identical segmentation pipeline over live frames.
// Capture and inference are serialized on one stream: each frame is fully
// composited (and optionally recorded) before the next is read, so the
// effective frame rate is bounded by capture plus inference plus composite
// latency. There is no frame dropping.
type Capture struct {
	cfg    config.WebcamConfig
	pipe   *pipeline.Pipeline
	logger *zap.Logger

	device *gocv.VideoCapture
	writer *gocv.VideoWriter

	recording bool
	paused    bool
	lastFrame image.Image
}

// Open acquires the capture device.
func Open(cfg config.WebcamConfig, pipe *pipeline.Pipeline, logger *zap.Logger) (*Capture, error) {
	device, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		return nil, errors.Wrapf(err, "open capture device %d", cfg.DeviceID)
	}
	return &Capture{cfg: cfg, pipe: pipe, logger: logger, device: device}, nil
}

// Run processes frames until the context is cancelled or the device stops
// delivering. Each frame is mirrored and brightness-adjusted per config,
// resized to the working resolution, composited against the selected
// background, shown in the preview window and appended to the recording
// when one is active.
func (c *Capture) Run(ctx context.Context, params pipeline.Params, showWindow bool) error {
	frame := gocv.NewMat()
	defer frame.Close()
	work := gocv.NewMat()
	defer work.Close()

	var window *gocv.Window
	if showWindow {
		window = gocv.NewWindow("Smart Background Studio")
		defer window.Close()
	}

	c.logger.Info("webcam loop started",
		zap.Int("device", c.cfg.DeviceID),
		zap.String("background", string(params.Background)))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if ok := c.device.Read(&frame); !ok {
			return errors.Errorf("cannot read device %d", c.cfg.DeviceID)
		}
		if frame.Empty() {
			continue
		}

		if c.cfg.Mirror {
			gocv.Flip(frame, &frame, 1)
		}
		gocv.Resize(frame, &work, image.Pt(c.cfg.FrameWidth, c.cfg.FrameHeight), 0, 0, gocv.InterpolationLinear)
		if c.cfg.Brightness != 0 {
			gocv.ConvertScaleAbs(work, &work, 1, c.cfg.Brightness)
		}

		img, err := work.ToImage()
		if err != nil {
			c.logger.Warn("skipping frame", zap.Error(err))
			continue
		}

		spec, err := pipeline.SpecFor(pipeline.ModeWebcam, params, img)
		if err != nil {
			return err
		}
		composited, err := c.pipe.Apply(ctx, img, spec)
		if err != nil {
			c.logger.Warn("frame inference failed", zap.Error(err))
			continue
		}
		c.lastFrame = composited

		if c.recording && !c.paused && c.writer != nil {
			mat, err := gocv.ImageToMatRGB(composited)
			if err != nil {
				c.logger.Warn("cannot convert frame for recording", zap.Error(err))
			} else {
				if err := c.writer.Write(mat); err != nil {
					c.logger.Warn("cannot write recording frame", zap.Error(err))
				}
				mat.Close()
			}
		}

		if window != nil {
			mat, err := gocv.ImageToMatRGB(composited)
			if err == nil {
				window.IMShow(mat)
				mat.Close()
			}
			if done := c.handleKey(window.WaitKey(1)); done {
				return nil
			}
		}
	}
}

// handleKey maps preview-window keys onto the studio controls:
// r toggles recording, p pauses/resumes it, s takes a snapshot,
// q or ESC ends the loop.
func (c *Capture) handleKey(key int) bool {
	switch key {
	case 'r':
		if c.recording {
			if err := c.StopRecording(); err != nil {
				c.logger.Warn("stop recording", zap.Error(err))
			}
		} else if err := c.StartRecording(); err != nil {
			c.logger.Warn("start recording", zap.Error(err))
		}
	case 'p':
		c.PauseRecording()
	case 's':
		if err := c.Snapshot(); err != nil {
			c.logger.Warn("snapshot", zap.Error(err))
		} else {
			c.logger.Info("snapshot saved", zap.String("path", c.cfg.SnapshotPath))
		}
	case 'q', 27:
		return true
	}
	return false
}

// StartRecording opens the AVI container and begins appending composited
// frames.
func (c *Capture) StartRecording() error {
	if c.recording {
		return nil
	}
	writer, err := gocv.VideoWriterFile(
		c.cfg.RecordingPath, "XVID", c.cfg.RecordingFPS,
		c.cfg.FrameWidth, c.cfg.FrameHeight, true)
	if err != nil {
		return errors.Wrapf(err, "open video writer %s", c.cfg.RecordingPath)
	}
	if !writer.IsOpened() {
		writer.Close()
		return errors.Errorf("failed to initialize video writer %s", c.cfg.RecordingPath)
	}
	c.writer = writer
	c.recording = true
	c.paused = false
	c.logger.Info("recording started", zap.String("path", c.cfg.RecordingPath))
	return nil
}

// PauseRecording toggles the paused state while keeping the container open.
func (c *Capture) PauseRecording() {
	if c.recording {
		c.paused = !c.paused
	}
}

// StopRecording finalizes the container.
func (c *Capture) StopRecording() error {
	if !c.recording {
		return nil
	}
	c.recording = false
	c.paused = false
	err := c.writer.Close()
	c.writer = nil
	c.logger.Info("recording stopped", zap.String("path", c.cfg.RecordingPath))
	return err
}

// Snapshot writes the most recent composited frame as a PNG.
func (c *Capture) Snapshot() error {
	if c.lastFrame == nil {
		return errors.New("no frame captured yet")
	}
	return imageio.Save(c.lastFrame, c.cfg.SnapshotPath)
}

// Close stops any recording and releases the capture device.
func (c *Capture) Close() error {
	if c.recording {
		_ = c.StopRecording()
	}
	return c.device.Close()
}
