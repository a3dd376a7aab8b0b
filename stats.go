package srprep

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// stats are prometheus stats for a generator run
type stats struct {
	ImagesTotal   prometheus.Counter
	ImagesSkipped prometheus.Counter
	OutputsTotal  prometheus.Counter
	DegradeTime   prometheus.Gauge
}

// newStats inits all the stats and registers them on r when r is not
// nil. Collectors already registered by an earlier run are reused so
// counts accumulate across runs.
func newStats(promNamespace string, r prometheus.Registerer) (*stats, error) {
	var s = new(stats)

	s.ImagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: promNamespace,
			Name:      "images_total",
			Help:      "how many source images were processed",
		},
	)
	s.ImagesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: promNamespace,
			Name:      "images_skipped_total",
			Help:      "how many source images could not be read",
		},
	)
	s.OutputsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: promNamespace,
			Name:      "outputs_total",
			Help:      "how many tile pairs or LR images were written",
		},
	)
	s.DegradeTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: promNamespace,
			Name:      "degrade_time_nano",
			Help:      "how long the last degradation took, in nanoseconds",
		},
	)

	if r == nil {
		return s, nil
	}

	var err error
	if s.ImagesTotal, err = registerCounter(r, s.ImagesTotal); err != nil {
		return nil, err
	}
	if s.ImagesSkipped, err = registerCounter(r, s.ImagesSkipped); err != nil {
		return nil, err
	}
	if s.OutputsTotal, err = registerCounter(r, s.OutputsTotal); err != nil {
		return nil, err
	}
	if err = r.Register(s.DegradeTime); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, errors.Wrap(err, "unable to register degrade time gauge")
		}
		s.DegradeTime = are.ExistingCollector.(prometheus.Gauge)
	}
	return s, nil
}

func registerCounter(r prometheus.Registerer, c prometheus.Counter) (prometheus.Counter, error) {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, errors.Wrap(err, "unable to register counter")
		}
		return are.ExistingCollector.(prometheus.Counter), nil
	}
	return c, nil
}
