package pipeline

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartbg-ai/go-smartbg/composite"
	"github.com/smartbg-ai/go-smartbg/segmentation"
)

// fakeSegmenter returns a fixed 320x320 gradient map without a model.
type fakeSegmenter struct {
	calls int
	fail  bool
}

func (f *fakeSegmenter) Infer(ctx context.Context, img image.Image) (*segmentation.SaliencyMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.fail {
		return nil, context.DeadlineExceeded
	}
	f.calls++
	data := make([]float32, 320*320)
	for i := range data {
		data[i] = float32(i % 320)
	}
	return segmentation.NewSaliencyMap(data, 320, 320), nil
}

func newTestPipeline(seg segmentation.Segmenter) *Pipeline {
	return New(seg, composite.DefaultOptions(), zap.NewNop())
}

func TestMaskMatchesImageDimensions(t *testing.T) {
	pipe := newTestPipeline(&fakeSegmenter{})

	for _, dims := range []image.Point{{X: 64, Y: 64}, {X: 1920, Y: 1080}, {X: 33, Y: 777}} {
		img := image.NewNRGBA(image.Rect(0, 0, dims.X, dims.Y))
		m, err := pipe.Mask(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, dims.X, m.Bounds().Dx(), "mask width for %v", dims)
		assert.Equal(t, dims.Y, m.Bounds().Dy(), "mask height for %v", dims)
	}
}

func TestApplyKeepsImageDimensions(t *testing.T) {
	pipe := newTestPipeline(&fakeSegmenter{})
	img := image.NewNRGBA(image.Rect(0, 0, 300, 200))

	out, err := pipe.Apply(context.Background(), img, composite.Transparent{})
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), out.Bounds())
}

func TestParseModeRejectsUnknown(t *testing.T) {
	for _, s := range []string{"", "sepia", "Transparent "} {
		_, err := ParseMode(s)
		if s == "Transparent " {
			assert.NoError(t, err, "modes are case and whitespace insensitive")
			continue
		}
		assert.Error(t, err, "mode %q", s)
	}
}

func TestNeedsModel(t *testing.T) {
	assert.False(t, ModeResize.NeedsModel(), "smart resize never touches the model")
	for _, m := range []Mode{ModeTransparent, ModeSolid, ModeReplace, ModeBlur, ModeBatch, ModeWebcam} {
		assert.True(t, m.NeedsModel(), "mode %s", m)
	}
}

func TestSpecForReplaceWithoutBackground(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	_, err := SpecFor(ModeReplace, Params{}, img)
	var missing *BackgroundMissingError
	require.ErrorAs(t, err, &missing)
}

func TestSpecForReplaceResizesBackgroundToForeground(t *testing.T) {
	dir := t.TempDir()
	bgPath := filepath.Join(dir, "bg.png")
	writePNG(t, bgPath, image.NewNRGBA(image.Rect(0, 0, 640, 480)))

	fg := image.NewNRGBA(image.Rect(0, 0, 300, 200))
	spec, err := SpecFor(ModeReplace, Params{BackgroundPath: bgPath}, fg)
	require.NoError(t, err)

	repl, ok := spec.(composite.ReplacementImage)
	require.True(t, ok)
	assert.Equal(t, 300, repl.Image.Bounds().Dx(), "background is pre-resized to the foreground")
	assert.Equal(t, 200, repl.Image.Bounds().Dy())
}

func TestSpecForBatchDelegatesToSubMode(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	spec, err := SpecFor(ModeBatch, Params{Background: ModeSolid, Color: composite.SolidColor{B: 255}}, img)
	require.NoError(t, err)
	_, ok := spec.(composite.SolidColor)
	assert.True(t, ok)
}

func TestOutputPathNaming(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "photo_transparent.png"),
		OutputPath("out", "in/photo.jpg", ModeTransparent, Params{}),
		"transparent output forces a PNG suffix")
	assert.Equal(t, filepath.Join("out", "processed_photo.jpg"),
		OutputPath("out", "in/photo.jpg", ModeSolid, Params{}))
	assert.Equal(t, filepath.Join("out", "photo_transparent.png"),
		OutputPath("out", "in/photo.jpg", ModeBatch, Params{Background: ModeTransparent}),
		"batch naming follows the sub-mode")
}

func TestProcessFileResizeSkipsModel(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "photo.png")
	writePNG(t, inPath, image.NewNRGBA(image.Rect(0, 0, 400, 200)))
	outPath := filepath.Join(dir, "resized.png")

	seg := &fakeSegmenter{}
	pipe := newTestPipeline(seg)
	params := Params{Width: 100, Height: 100, AspectLock: true}
	require.NoError(t, pipe.ProcessFile(context.Background(), inPath, outPath, ModeResize, params))
	assert.Zero(t, seg.calls, "resize must not run inference")

	out := readPNG(t, outPath)
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 50, out.Bounds().Dy(), "aspect lock shrinks the taller axis")
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		writePNG(t, filepath.Join(dir, name), image.NewNRGBA(image.Rect(0, 0, 32, 32)))
	}
	// A file with an image extension but garbage content must be skipped,
	// not abort the batch.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.png"), []byte("not a png"), 0o644))

	pipe := newTestPipeline(&fakeSegmenter{})
	outputs, err := pipe.ProcessBatch(context.Background(), dir, outDir, Params{Background: ModeTransparent})
	require.NoError(t, err, "item failures never escape the batch")
	assert.Len(t, outputs, 4)
	for _, p := range outputs {
		_, statErr := os.Stat(p)
		assert.NoError(t, statErr, "output %s must exist", p)
	}
}

func TestProcessBatchStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), image.NewNRGBA(image.Rect(0, 0, 8, 8)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pipe := newTestPipeline(&fakeSegmenter{})
	_, err := pipe.ProcessBatch(ctx, dir, t.TempDir(), Params{Background: ModeTransparent})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSmartResizeIdempotent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	once := SmartResize(img, 100, 100, true)
	twice := SmartResize(once, 100, 100, true)
	assert.Equal(t, once.Bounds(), twice.Bounds())
	assert.Same(t, once, twice, "an image already at the effective target passes through")
}

func TestSmartResizeWithoutAspectLockDistorts(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	out := SmartResize(img, 100, 100, false)
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 100, out.Bounds().Dy())
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func readPNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}
