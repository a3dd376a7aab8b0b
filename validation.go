package srprep

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/wbrown/srprep/imageutil"
)

// GenerateValidationImages degrades every whole source image in
// cfg.SourceDir and writes the result to OutputDir as
// {Prefix}{name}.png, where name is the source file name without its
// extension. Images smaller than the upscale factor on either side cannot
// be degraded and are handled like unreadable ones.
func GenerateValidationImages(ctx context.Context, cfg ValidationConfig) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	r, err := newRun(cfg.Config)
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return Result{}, errors.Wrapf(err, "unable to create output directory %s", cfg.OutputDir)
	}

	files, err := ListImages(cfg.SourceDir, cfg.extensions())
	if err != nil {
		return Result{}, err
	}

	// Sources that differ only in extension share an output name. The
	// later one wins, as long as images are processed in order.
	workers := cfg.workers()
	outputs := make(map[string]string, len(files))
	for _, path := range files {
		name := cfg.Prefix + baseName(filepath.Base(path)) + ".png"
		if earlier, ok := outputs[name]; ok {
			r.log.WithFields(logrus.Fields{
				"file":   path,
				"other":  earlier,
				"output": name,
			}).Warn("output name collision, processing images sequentially")
			workers = 1
		}
		outputs[name] = path
	}

	err = forEach(ctx, workers, len(files), func(ctx context.Context, i int) error {
		return degradeImage(r, cfg, files[i])
	})
	res := r.summary()
	if err != nil {
		return res, err
	}

	r.log.WithFields(logrus.Fields{
		"images":  res.Images,
		"skipped": len(res.Skipped),
		"psnr":    res.PSNR,
	}).Info("generated validation images")
	return res, nil
}

func degradeImage(r *run, cfg ValidationConfig, path string) error {
	img, err := imageutil.LoadImage(path)
	if err != nil {
		return r.skip(path, err)
	}

	lr, psnr, err := r.degrade(img, cfg.UpscaleFactor)
	if err != nil {
		return r.skip(path, err)
	}

	out := filepath.Join(cfg.OutputDir, cfg.Prefix+baseName(filepath.Base(path))+".png")
	if err := imageutil.SavePNG(lr.RGBA, out); err != nil {
		return errors.Wrap(err, "unable to write LR image")
	}
	r.done(1, psnr)

	r.log.WithFields(logrus.Fields{
		"file": path,
		"lr":   out,
	}).Debug("wrote validation image")
	return nil
}
