package srprep

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/wbrown/srprep/imageutil"
	"golang.org/x/sync/errgroup"
)

// run holds the state shared by the images of one generator run. Its
// methods are safe for concurrent use.
type run struct {
	log      logrus.FieldLogger
	stats    *stats
	degrader Degrader
	strict   bool

	mu      sync.Mutex
	result  Result
	psnrSum float64
}

func newRun(c Config) (*run, error) {
	degrader, err := Backend(c.Backend)
	if err != nil {
		return nil, err
	}
	s, err := newStats(c.namespace(), c.Registerer)
	if err != nil {
		return nil, err
	}
	return &run{
		log:      c.logger(),
		stats:    s,
		degrader: degrader,
		strict:   c.Strict,
	}, nil
}

// skip records a source image that could not be read. In strict mode the
// error is returned instead.
func (r *run) skip(path string, err error) error {
	if r.strict {
		return errors.Wrapf(err, "unable to process %s", path)
	}
	r.log.WithFields(logrus.Fields{
		"file":  path,
		"error": err,
	}).Warn("skipping source image")
	r.stats.ImagesSkipped.Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Skipped = append(r.result.Skipped, path)
	return nil
}

// degrade degrades img with the run's backend and returns the luma PSNR
// of the result against img.
func (r *run) degrade(img *imageutil.RGBAImage, factor int) (*imageutil.RGBAImage, float64, error) {
	start := time.Now()
	lr, err := r.degrader.Degrade(img, factor)
	if err != nil {
		return nil, 0, err
	}
	r.stats.DegradeTime.Set(float64(time.Since(start)))
	return lr, imageutil.PSNR(img, lr), nil
}

// done records a processed source image that produced outputs images
// whose PSNRs add up to psnrSum.
func (r *run) done(outputs int, psnrSum float64) {
	r.stats.ImagesTotal.Inc()
	r.stats.OutputsTotal.Add(float64(outputs))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Images++
	r.result.Outputs += outputs
	r.psnrSum += psnrSum
}

func (r *run) summary() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.result
	res.Skipped = append([]string(nil), r.result.Skipped...)
	sort.Strings(res.Skipped)
	if res.Outputs > 0 {
		res.PSNR = r.psnrSum / float64(res.Outputs)
	}
	return res
}

// forEach calls fn for 0..n-1, on up to workers goroutines. It stops at
// the first error or when ctx is done.
func forEach(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) error {
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(workers)
	for i := 0; i < n; i++ {
		if dCtx.Err() != nil {
			break
		}
		localIdx := i
		errGrp.Go(func() error {
			return fn(dCtx, localIdx)
		})
	}
	if err := errGrp.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
