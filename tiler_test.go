package srprep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/srprep/imageutil"
)

// tilerDirs creates a source directory and returns a TilerConfig writing
// to fresh HR and LR directories.
func tilerDirs(t *testing.T, opts ...Option) (string, TilerConfig) {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(src, 0755))

	logger, _ := nullLogger()
	opts = append([]Option{WithLogger(logger)}, opts...)
	return src, DefaultTilerConfig(src, filepath.Join(root, "hr"), filepath.Join(root, "lr"), opts...)
}

func tileNames(prefix string, n int) []string {
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		names = append(names, fmt.Sprintf("%s%d.png", prefix, i))
	}
	sort.Strings(names)
	return names
}

func TestGenerateSubImages(t *testing.T) {
	t.Parallel()

	src, cfg := tilerDirs(t)
	img := imageutil.CreateNoiseImage(64, 64, 1)
	writePNG(t, src, "a.png", img)

	res, err := GenerateSubImages(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Images)
	assert.Equal(t, 9, res.Outputs)
	assert.Empty(t, res.Skipped)
	assert.Greater(t, res.PSNR, 0.0)
	assert.Less(t, res.PSNR, imageutil.MaxPSNR)

	assert.Equal(t, tileNames("t91_hr_", 9), dirNames(t, cfg.HROutputDir))
	assert.Equal(t, tileNames("t91_lr_", 9), dirNames(t, cfg.LROutputDir))

	// Tiles are numbered row by row from origins 0, 14 and 28
	origins := []int{0, 14, 28}
	for n := 0; n < 9; n++ {
		x, y := origins[n%3], origins[n/3]
		hr := loadPNG(t, filepath.Join(cfg.HROutputDir, fmt.Sprintf("t91_hr_%d.png", n)))
		lr := loadPNG(t, filepath.Join(cfg.LROutputDir, fmt.Sprintf("t91_lr_%d.png", n)))

		assert.Equal(t, 33, hr.Width())
		assert.Equal(t, 33, hr.Height())
		assert.Equal(t, hr.Bounds(), lr.Bounds())
		assert.Equal(t, 0, imageutil.CalculateMaxDiff(imageutil.Crop(img, x, y, 33), hr), "tile %d", n)

		want, err := imageutil.Degrade(hr, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, imageutil.CalculateMaxDiff(want, lr), "tile %d", n)
	}
}

func TestGenerateSubImagesCustomNames(t *testing.T) {
	t.Parallel()

	src, cfg := tilerDirs(t, WithExtensions(".bmp", ".png"))
	cfg.SubImageSize = 16
	cfg.Stride = 16
	cfg.UpscaleFactor = 3
	cfg.HRPrefix = "hr-"
	cfg.LRPrefix = "lr-"
	writePNG(t, src, "a.png", imageutil.CreateGradientImage(32, 20))

	res, err := GenerateSubImages(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Outputs)
	assert.Equal(t, []string{"hr-0.png", "hr-1.png"}, dirNames(t, cfg.HROutputDir))
	assert.Equal(t, []string{"lr-0.png", "lr-1.png"}, dirNames(t, cfg.LROutputDir))

	lr := loadPNG(t, filepath.Join(cfg.LROutputDir, "lr-1.png"))
	assert.Equal(t, 16, lr.Width())
	assert.Equal(t, 16, lr.Height())
}

func TestGenerateSubImagesEmptySource(t *testing.T) {
	t.Parallel()

	_, cfg := tilerDirs(t)
	res, err := GenerateSubImages(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Empty(t, dirNames(t, cfg.HROutputDir))
	assert.Empty(t, dirNames(t, cfg.LROutputDir))
}

func TestGenerateSubImagesMissingSource(t *testing.T) {
	t.Parallel()

	_, cfg := tilerDirs(t)
	cfg.SourceDir = filepath.Join(cfg.SourceDir, "missing")

	_, err := GenerateSubImages(context.Background(), cfg)
	require.Error(t, err)
	assert.DirExists(t, cfg.HROutputDir)
	assert.DirExists(t, cfg.LROutputDir)
}

func TestGenerateSubImagesTooSmall(t *testing.T) {
	t.Parallel()

	src, cfg := tilerDirs(t)
	writePNG(t, src, "narrow.png", imageutil.CreateNoiseImage(32, 64, 2))
	writePNG(t, src, "short.png", imageutil.CreateNoiseImage(64, 20, 3))

	res, err := GenerateSubImages(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Images)
	assert.Equal(t, 0, res.Outputs)
	assert.Equal(t, 0.0, res.PSNR)
	assert.Empty(t, dirNames(t, cfg.HROutputDir))
}

func TestGenerateSubImagesNumbering(t *testing.T) {
	t.Parallel()

	a := imageutil.CreateNoiseImage(64, 64, 4)
	b := imageutil.CreateNoiseImage(47, 47, 5)

	t.Run("global", func(t *testing.T) {
		t.Parallel()
		for _, workers := range []int{1, 4} {
			src, cfg := tilerDirs(t, WithWorkers(workers))
			writePNG(t, src, "a.png", a)
			writePNG(t, src, "b.png", b)

			res, err := GenerateSubImages(context.Background(), cfg)
			require.NoError(t, err)
			assert.Equal(t, 2, res.Images)
			assert.Equal(t, 13, res.Outputs)
			assert.Equal(t, tileNames("t91_hr_", 13), dirNames(t, cfg.HROutputDir))

			// b's first tile follows a's nine
			hr := loadPNG(t, filepath.Join(cfg.HROutputDir, "t91_hr_9.png"))
			assert.Equal(t, 0, imageutil.CalculateMaxDiff(imageutil.Crop(b, 0, 0, 33), hr), "workers %d", workers)
			hr = loadPNG(t, filepath.Join(cfg.HROutputDir, "t91_hr_8.png"))
			assert.Equal(t, 0, imageutil.CalculateMaxDiff(imageutil.Crop(a, 28, 28, 33), hr), "workers %d", workers)
		}
	})

	t.Run("per-image", func(t *testing.T) {
		t.Parallel()
		src, cfg := tilerDirs(t, WithWorkers(4))
		cfg.Numbering = NumberPerImage
		writePNG(t, src, "a.png", a)
		writePNG(t, src, "b.png", b)

		res, err := GenerateSubImages(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, 13, res.Outputs)
		assert.Equal(t, tileNames("t91_hr_", 9), dirNames(t, cfg.HROutputDir))

		// b overwrote a's first four tiles
		hr := loadPNG(t, filepath.Join(cfg.HROutputDir, "t91_hr_0.png"))
		assert.Equal(t, 0, imageutil.CalculateMaxDiff(imageutil.Crop(b, 0, 0, 33), hr))
		hr = loadPNG(t, filepath.Join(cfg.HROutputDir, "t91_hr_4.png"))
		assert.Equal(t, 0, imageutil.CalculateMaxDiff(imageutil.Crop(a, 14, 14, 33), hr))
	})
}

func TestGenerateSubImagesSkipsCorrupt(t *testing.T) {
	t.Parallel()

	src, cfg := tilerDirs(t)
	logger, hook := nullLogger()
	cfg.Logger = logger
	corrupt := writeFile(t, src, "a.png", []byte("not a png"))
	writePNG(t, src, "b.png", imageutil.CreateNoiseImage(33, 33, 6))

	res, err := GenerateSubImages(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Images)
	assert.Equal(t, 1, res.Outputs)
	assert.Equal(t, []string{corrupt}, res.Skipped)
	assert.Equal(t, []string{"t91_hr_0.png"}, dirNames(t, cfg.HROutputDir))

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["file"] == corrupt {
			warned = true
		}
	}
	assert.True(t, warned, "skipped file should be logged")
}

func TestGenerateSubImagesStrict(t *testing.T) {
	t.Parallel()

	src, cfg := tilerDirs(t, WithStrict(true))
	corrupt := writeFile(t, src, "a.png", []byte("not a png"))
	writePNG(t, src, "b.png", imageutil.CreateNoiseImage(33, 33, 6))

	_, err := GenerateSubImages(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), corrupt)
	assert.Empty(t, dirNames(t, cfg.HROutputDir))
}

func TestGenerateSubImagesInvalidConfig(t *testing.T) {
	t.Parallel()

	_, cfg := tilerDirs(t)
	cfg.Stride = 0
	_, err := GenerateSubImages(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.NoDirExists(t, cfg.HROutputDir)

	_, cfg = tilerDirs(t, WithBackend("no-such-backend"))
	_, err = GenerateSubImages(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestGenerateSubImagesCancelled(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{1, 3} {
		src, cfg := tilerDirs(t, WithWorkers(workers))
		writePNG(t, src, "a.png", imageutil.CreateNoiseImage(64, 64, 7))
		writePNG(t, src, "b.png", imageutil.CreateNoiseImage(64, 64, 8))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := GenerateSubImages(ctx, cfg)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, dirNames(t, cfg.HROutputDir))
	}
}

func TestGenerateSubImagesBackend(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	RegisterBackend("test-counting", DegraderFunc(func(img *imageutil.RGBAImage, factor int) (*imageutil.RGBAImage, error) {
		calls.Add(1)
		return imageutil.Degrade(img, factor)
	}))

	src, cfg := tilerDirs(t, WithBackend("test-counting"))
	writePNG(t, src, "a.png", imageutil.CreateNoiseImage(64, 64, 9))

	res, err := GenerateSubImages(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 9, res.Outputs)
	assert.Equal(t, int32(9), calls.Load())
}

func TestGenerateSubImagesMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	src, cfg := tilerDirs(t, WithRegisterer(reg))
	writePNG(t, src, "a.png", imageutil.CreateNoiseImage(64, 64, 10))
	writeFile(t, src, "b.png", []byte("corrupt"))

	// A second run on the same registry keeps counting
	for i := 0; i < 2; i++ {
		_, err := GenerateSubImages(context.Background(), cfg)
		require.NoError(t, err)
	}

	expected := `
# HELP srprep_images_total how many source images were processed
# TYPE srprep_images_total counter
srprep_images_total 2
# HELP srprep_images_skipped_total how many source images could not be read
# TYPE srprep_images_skipped_total counter
srprep_images_skipped_total 2
# HELP srprep_outputs_total how many tile pairs or LR images were written
# TYPE srprep_outputs_total counter
srprep_outputs_total 18
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"srprep_images_total", "srprep_images_skipped_total", "srprep_outputs_total"))
	count, err := testutil.GatherAndCount(reg, "srprep_degrade_time_nano")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
