package srprep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/wbrown/srprep/imageutil"
)

// plannedImage is a source image with the index of its first tile.
type plannedImage struct {
	path          string
	width, height int
	first         int
}

// GenerateSubImages tiles every source image in cfg.SourceDir into
// SubImageSize squares whose origins lie Stride pixels apart, row by row.
// Each tile n is written to HROutputDir as {HRPrefix}{n}.png and its
// degraded counterpart to LROutputDir as {LRPrefix}{n}.png. Images smaller
// than a tile yield no tiles.
//
// Both output directories are created first, so they exist even when the
// source directory is empty or missing.
func GenerateSubImages(ctx context.Context, cfg TilerConfig) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	r, err := newRun(cfg.Config)
	if err != nil {
		return Result{}, err
	}

	for _, dir := range []string{cfg.HROutputDir, cfg.LROutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Result{}, errors.Wrapf(err, "unable to create output directory %s", dir)
		}
	}

	files, err := ListImages(cfg.SourceDir, cfg.extensions())
	if err != nil {
		return Result{}, err
	}

	plan, err := planTiles(r, cfg, files)
	if err != nil {
		return r.summary(), err
	}

	workers := cfg.workers()
	if cfg.Numbering == NumberPerImage && workers > 1 {
		r.log.WithField("workers", workers).Warn("per-image numbering overwrites tiles, processing images sequentially")
		workers = 1
	}

	err = forEach(ctx, workers, len(plan), func(ctx context.Context, i int) error {
		return tileImage(ctx, r, cfg, plan[i])
	})
	res := r.summary()
	if err != nil {
		return res, err
	}

	r.log.WithFields(logrus.Fields{
		"images":  res.Images,
		"tiles":   res.Outputs,
		"skipped": len(res.Skipped),
		"psnr":    res.PSNR,
	}).Info("generated sub images")
	return res, nil
}

// planTiles reads the dimensions of every source image and assigns each
// the index of its first tile.
func planTiles(r *run, cfg TilerConfig, files []string) ([]plannedImage, error) {
	plan := make([]plannedImage, 0, len(files))
	next := 0
	for _, path := range files {
		width, height, err := imageutil.LoadConfig(path)
		if err != nil {
			if err := r.skip(path, err); err != nil {
				return nil, err
			}
			continue
		}

		p := plannedImage{path: path, width: width, height: height}
		if cfg.Numbering == NumberGlobal {
			p.first = next
			next += imageutil.TileCount(width, height, cfg.SubImageSize, cfg.Stride)
		}
		plan = append(plan, p)
	}
	return plan, nil
}

func tileImage(ctx context.Context, r *run, cfg TilerConfig, p plannedImage) error {
	img, err := imageutil.LoadImage(p.path)
	if err != nil {
		return r.skip(p.path, err)
	}
	if img.Width() != p.width || img.Height() != p.height {
		return r.skip(p.path, errors.Errorf("decoded size %dx%d differs from header size %dx%d",
			img.Width(), img.Height(), p.width, p.height))
	}

	n := p.first
	outputs := 0
	var psnrSum float64
	defer func() { r.done(outputs, psnrSum) }()

	for _, y := range imageutil.TileOrigins(img.Height(), cfg.SubImageSize, cfg.Stride) {
		for _, x := range imageutil.TileOrigins(img.Width(), cfg.SubImageSize, cfg.Stride) {
			if err := ctx.Err(); err != nil {
				return err
			}

			hr := imageutil.Crop(img, x, y, cfg.SubImageSize)
			hrPath := filepath.Join(cfg.HROutputDir, fmt.Sprintf("%s%d.png", cfg.HRPrefix, n))
			if err := imageutil.SavePNG(hr.RGBA, hrPath); err != nil {
				return errors.Wrap(err, "unable to write HR tile")
			}

			lr, psnr, err := r.degrade(hr, cfg.UpscaleFactor)
			if err != nil {
				return errors.Wrapf(err, "unable to degrade tile %d of %s", n, p.path)
			}
			lrPath := filepath.Join(cfg.LROutputDir, fmt.Sprintf("%s%d.png", cfg.LRPrefix, n))
			if err := imageutil.SavePNG(lr.RGBA, lrPath); err != nil {
				return errors.Wrap(err, "unable to write LR tile")
			}

			r.log.WithFields(logrus.Fields{
				"file": p.path,
				"x":    x,
				"y":    y,
				"hr":   hrPath,
				"lr":   lrPath,
			}).Debug("wrote tile pair")

			n++
			outputs++
			psnrSum += psnr
		}
	}

	r.log.WithFields(logrus.Fields{
		"file":  p.path,
		"tiles": outputs,
	}).Debug("tiled image")
	return nil
}
