// Package preview renders contact sheets of HR/LR sample pairs so a
// generated dataset can be checked by eye.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"github.com/wbrown/srprep/imageutil"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	DefaultCell     = 99
	DefaultMax      = 16
	DefaultFontSize = 12.0

	padding    = 6
	labelWidth = 110
)

// Pair is an HR image and its degraded LR counterpart.
type Pair struct {
	// Name identifies the pair, e.g. the tile index.
	Name string
	HR   *imageutil.RGBAImage
	LR   *imageutil.RGBAImage
}

// Options controls the contact sheet layout.
type Options struct {
	// Cell is the edge length in pixels each image is scaled to fit.
	Cell int
	// Max is the largest number of pairs drawn. Zero means all.
	Max int
	// Font renders the labels. Nil means Go Regular.
	Font     *truetype.Font
	FontSize float64
}

// DefaultOptions returns 99 pixel cells, at most 16 rows and 12 point Go
// Regular labels.
func DefaultOptions() Options {
	return Options{
		Cell:     DefaultCell,
		Max:      DefaultMax,
		FontSize: DefaultFontSize,
	}
}

// ContactSheet draws one row per pair: a label with the pair's name and
// PSNR, the HR image, then the LR image. Images are scaled with nearest
// neighbour so individual pixels stay visible.
func ContactSheet(pairs []Pair, opts Options) (*image.NRGBA, error) {
	if opts.Cell <= 0 {
		return nil, errors.Errorf("cell size must be positive, got %d", opts.Cell)
	}
	if opts.Max > 0 && len(pairs) > opts.Max {
		pairs = pairs[:opts.Max]
	}
	if len(pairs) == 0 {
		return nil, errors.New("no pairs to draw")
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultFontSize
	}
	ttf := opts.Font
	if ttf == nil {
		var err error
		if ttf, err = freetype.ParseFont(goregular.TTF); err != nil {
			return nil, errors.Wrap(err, "unable to parse Go Regular")
		}
	}

	rowHeight := opts.Cell + padding
	width := labelWidth + 2*(opts.Cell+padding) + padding
	height := len(pairs)*rowHeight + padding
	sheet := imaging.New(width, height, color.White)

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(ttf)
	ctx.SetFontSize(opts.FontSize)
	ctx.SetClip(sheet.Bounds())
	ctx.SetDst(sheet)
	ctx.SetSrc(image.Black)
	ctx.SetHinting(font.HintingFull)

	for i, p := range pairs {
		if p.HR == nil || p.LR == nil {
			return nil, errors.Errorf("pair %q is missing an image", p.Name)
		}
		top := padding + i*rowHeight

		// Label baseline a line below the row top.
		line := int(ctx.PointToFixed(opts.FontSize) >> 6)
		labels := []string{p.Name, fmt.Sprintf("%.2f dB", imageutil.PSNR(p.HR, p.LR))}
		for j, text := range labels {
			if _, err := ctx.DrawString(text, freetype.Pt(padding, top+(j+1)*line)); err != nil {
				return nil, errors.Wrapf(err, "unable to draw label %q", text)
			}
		}

		sheet = imaging.Paste(sheet, thumbnail(p.HR, opts.Cell), image.Pt(labelWidth, top))
		sheet = imaging.Paste(sheet, thumbnail(p.LR, opts.Cell), image.Pt(labelWidth+opts.Cell+padding, top))
		ctx.SetDst(sheet)
	}
	return sheet, nil
}

// thumbnail scales img to fit a cell×cell square, keeping its aspect
// ratio.
func thumbnail(img *imageutil.RGBAImage, cell int) *image.NRGBA {
	w, h := cell, cell
	if img.Width() > img.Height() {
		h = max(1, img.Height()*cell/img.Width())
	} else if img.Height() > img.Width() {
		w = max(1, img.Width()*cell/img.Height())
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// LoadPairs reads up to limit pairs (all when limit is 0) written as
// {hrPrefix}{name}.png in hrDir and {lrPrefix}{name}.png in lrDir, ordered
// by name with numeric names in numeric order. HR images without an LR
// counterpart are ignored.
func LoadPairs(hrDir, lrDir, hrPrefix, lrPrefix string, limit int) ([]Pair, error) {
	entries, err := os.ReadDir(hrDir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read HR directory %s", hrDir)
	}

	var names []string
	for _, entry := range entries {
		file := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(file, hrPrefix) || !strings.HasSuffix(file, ".png") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(file, hrPrefix), ".png")
		if _, err := os.Stat(filepath.Join(lrDir, lrPrefix+name+".png")); err != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return nameLess(names[i], names[j])
	})
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	pairs := make([]Pair, 0, len(names))
	for _, name := range names {
		hr, err := imageutil.LoadImage(filepath.Join(hrDir, hrPrefix+name+".png"))
		if err != nil {
			return nil, err
		}
		lr, err := imageutil.LoadImage(filepath.Join(lrDir, lrPrefix+name+".png"))
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Name: name, HR: hr, LR: lr})
	}
	return pairs, nil
}

// nameLess orders numeric names by value and everything else lexically,
// with numbers first.
func nameLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}
