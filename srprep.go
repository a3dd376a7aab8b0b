// Package srprep prepares paired image sets for training and validating
// super-resolution models.
//
// GenerateSubImages cuts every source image into overlapping square
// high-resolution tiles and writes a degraded low-resolution counterpart
// for each one. GenerateValidationImages degrades whole images instead.
// Both degrade the same way: a 3×3 Gaussian blur, a bilinear downscale by
// the upscale factor and a bicubic upscale back to the original size, with
// the numerics of OpenCV so datasets match ones built with cv2.
package srprep

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	DefaultUpscaleFactor    = 2
	DefaultSubImageSize     = 33
	DefaultStride           = 14
	DefaultHRPrefix         = "t91_hr_"
	DefaultLRPrefix         = "t91_lr_"
	DefaultValidationPrefix = "set5_lr_"

	// DefaultNamespace prefixes every prometheus metric.
	DefaultNamespace = "srprep"
)

// DefaultExtensions are the file name suffixes treated as source images.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg"}

var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrUnknownBackend = errors.New("unknown degradation backend")
)

// Numbering selects how tile indices are assigned across source images.
type Numbering int

const (
	// NumberGlobal numbers tiles consecutively across all source images in
	// enumeration order, so every tile gets a unique file name.
	NumberGlobal Numbering = iota

	// NumberPerImage restarts numbering at 0 for every source image. Tiles
	// of later images overwrite those of earlier ones with the same index.
	NumberPerImage
)

func (n Numbering) String() string {
	switch n {
	case NumberGlobal:
		return "global"
	case NumberPerImage:
		return "per-image"
	}
	return "unknown"
}

// ParseNumbering parses the String form of a Numbering.
func ParseNumbering(s string) (Numbering, error) {
	switch s {
	case "global":
		return NumberGlobal, nil
	case "per-image":
		return NumberPerImage, nil
	}
	return 0, errors.Wrapf(ErrInvalidConfig, "unknown numbering %q", s)
}

// Config holds the settings shared by every dataset generator.
type Config struct {
	// Extensions are the file name suffixes of source images, matched
	// case-sensitively. Empty means DefaultExtensions.
	Extensions []string

	// Backend names the registered Degrader to use. Empty means
	// DefaultBackend.
	Backend string

	// Workers is the number of source images processed concurrently.
	// Values below 1 mean 1.
	Workers int

	// Strict aborts the run on the first source image that cannot be
	// read. Otherwise such images are logged, counted and skipped.
	Strict bool

	Logger logrus.FieldLogger

	// Registerer receives the run's metrics when non-nil.
	Registerer prometheus.Registerer

	// Namespace prefixes metric names. Empty means DefaultNamespace.
	Namespace string
}

// Option is a functional option for configuring a Config.
type Option func(*Config)

// NewConfig creates a Config with the given options applied.
// Default values: Extensions=DefaultExtensions, Backend=DefaultBackend,
// Workers=1, Logger=logrus.StandardLogger(), Namespace=DefaultNamespace.
func NewConfig(opts ...Option) Config {
	c := Config{
		Extensions: DefaultExtensions,
		Backend:    DefaultBackend,
		Workers:    1,
		Logger:     logrus.StandardLogger(),
		Namespace:  DefaultNamespace,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithExtensions sets the source file name suffixes.
func WithExtensions(exts ...string) Option {
	return func(c *Config) {
		c.Extensions = exts
	}
}

// WithBackend selects the degradation backend by name.
func WithBackend(name string) Option {
	return func(c *Config) {
		c.Backend = name
	}
}

// WithWorkers sets the number of images processed concurrently.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithStrict makes unreadable source images abort the run.
func WithStrict(strict bool) Option {
	return func(c *Config) {
		c.Strict = strict
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRegisterer registers the run's metrics on r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registerer = r
	}
}

// WithNamespace sets the metric namespace.
func WithNamespace(ns string) Option {
	return func(c *Config) {
		c.Namespace = ns
	}
}

func (c Config) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

func (c Config) extensions() []string {
	if len(c.Extensions) == 0 {
		return DefaultExtensions
	}
	return c.Extensions
}

func (c Config) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}

func (c Config) namespace() string {
	if c.Namespace == "" {
		return DefaultNamespace
	}
	return c.Namespace
}

// TilerConfig configures GenerateSubImages.
type TilerConfig struct {
	Config

	SourceDir   string
	HROutputDir string
	LROutputDir string

	// SubImageSize is the edge length of each square tile.
	SubImageSize int
	// Stride is the distance between neighbouring tile origins.
	Stride int
	// UpscaleFactor is the factor LR tiles are degraded by. It may not
	// divide SubImageSize, in which case the downscale rounds down.
	UpscaleFactor int

	HRPrefix  string
	LRPrefix  string
	Numbering Numbering
}

// DefaultTilerConfig returns a TilerConfig with 33 pixel tiles every 14
// pixels, upscale factor 2, the t91 prefixes and global numbering.
func DefaultTilerConfig(sourceDir, hrDir, lrDir string, opts ...Option) TilerConfig {
	return TilerConfig{
		Config:        NewConfig(opts...),
		SourceDir:     sourceDir,
		HROutputDir:   hrDir,
		LROutputDir:   lrDir,
		SubImageSize:  DefaultSubImageSize,
		Stride:        DefaultStride,
		UpscaleFactor: DefaultUpscaleFactor,
		HRPrefix:      DefaultHRPrefix,
		LRPrefix:      DefaultLRPrefix,
		Numbering:     NumberGlobal,
	}
}

func (c TilerConfig) validate() error {
	switch {
	case c.HROutputDir == "" || c.LROutputDir == "":
		return errors.Wrap(ErrInvalidConfig, "output directories must be set")
	case c.SubImageSize <= 0:
		return errors.Wrapf(ErrInvalidConfig, "sub image size must be positive, got %d", c.SubImageSize)
	case c.Stride <= 0:
		return errors.Wrapf(ErrInvalidConfig, "stride must be positive, got %d", c.Stride)
	case c.UpscaleFactor <= 0:
		return errors.Wrapf(ErrInvalidConfig, "upscale factor must be positive, got %d", c.UpscaleFactor)
	case c.UpscaleFactor > c.SubImageSize:
		return errors.Wrapf(ErrInvalidConfig, "upscale factor %d exceeds sub image size %d", c.UpscaleFactor, c.SubImageSize)
	case c.Numbering != NumberGlobal && c.Numbering != NumberPerImage:
		return errors.Wrapf(ErrInvalidConfig, "unknown numbering %d", c.Numbering)
	}
	return nil
}

// ValidationConfig configures GenerateValidationImages.
type ValidationConfig struct {
	Config

	SourceDir     string
	OutputDir     string
	UpscaleFactor int
	Prefix        string
}

// DefaultValidationConfig returns a ValidationConfig with upscale factor 2
// and the set5 prefix.
func DefaultValidationConfig(sourceDir, outputDir string, opts ...Option) ValidationConfig {
	return ValidationConfig{
		Config:        NewConfig(opts...),
		SourceDir:     sourceDir,
		OutputDir:     outputDir,
		UpscaleFactor: DefaultUpscaleFactor,
		Prefix:        DefaultValidationPrefix,
	}
}

func (c ValidationConfig) validate() error {
	switch {
	case c.OutputDir == "":
		return errors.Wrap(ErrInvalidConfig, "output directory must be set")
	case c.UpscaleFactor <= 0:
		return errors.Wrapf(ErrInvalidConfig, "upscale factor must be positive, got %d", c.UpscaleFactor)
	}
	return nil
}

// Result summarizes a generator run.
type Result struct {
	// Images is the number of source images processed.
	Images int
	// Outputs is the number of tile pairs or LR images written.
	Outputs int
	// Skipped lists the source images that could not be read, sorted.
	Skipped []string
	// PSNR is the mean luma PSNR in dB of every LR output against its
	// HR input, or 0 when nothing was written.
	PSNR float64
}
