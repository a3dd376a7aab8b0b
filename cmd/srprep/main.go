package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/wbrown/srprep"
	"github.com/wbrown/srprep/imageutil"
	"github.com/wbrown/srprep/preview"
	"go.szostok.io/version"
	"go.szostok.io/version/printer"
)

const usage = `Usage: srprep [-debug] [-metrics-addr addr] [-version] <command> [flags]

Commands:
  tiles    cut source images into HR tiles and write degraded LR tiles
  val      write a degraded LR copy of every validation image
  preview  draw a contact sheet of HR/LR pairs

Run 'srprep <command> -h' for the flags of a command.
`

func main() {
	var start = time.Now()

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	var debug bool
	var metricsAddr string
	var v bool
	flag.BoolVar(&debug, "debug", false, "log every output file")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :5000")
	flag.BoolVar(&v, "version", false, "print version")
	flag.BoolVar(&v, "v", false, "print version")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if v {
		var verPrinter = printer.New()
		var info = version.Get()
		if err := verPrinter.PrintInfo(os.Stdout, info); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var ctx, cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// prom
	if metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			s := &http.Server{
				Addr:           metricsAddr,
				ReadTimeout:    10 * time.Second,
				WriteTimeout:   10 * time.Second,
				MaxHeaderBytes: 1 << 20,
			}
			log.Fatal(s.ListenAndServe())
		}()
	}

	var cmd, args = flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "tiles":
		runTiles(ctx, args)
	case "val":
		runValidation(ctx, args)
	case "preview":
		runPreview(args)
	default:
		log.Errorf("unknown command %q", cmd)
		flag.Usage()
		os.Exit(2)
	}

	log.Info("Total time taken: ", time.Since(start))
}

// commonFlags registers the flags shared by tiles and val.
func commonFlags(fs *flag.FlagSet) (exts, backend *string, strict *bool) {
	exts = fs.String("ext", strings.Join(srprep.DefaultExtensions, ","), "comma separated source file suffixes")
	backend = fs.String("backend", srprep.DefaultBackend, "degradation backend: "+strings.Join(srprep.Backends(), ", "))
	strict = fs.Bool("strict", false, "abort on the first unreadable source image")
	return exts, backend, strict
}

// splitExtensions splits a comma separated suffix list, dropping blank
// entries.
func splitExtensions(s string) []string {
	var exts []string
	for _, ext := range strings.Split(s, ",") {
		if ext = strings.TrimSpace(ext); ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

func commonOptions(exts, backend string, strict bool) []srprep.Option {
	return []srprep.Option{
		srprep.WithExtensions(splitExtensions(exts)...),
		srprep.WithBackend(backend),
		srprep.WithStrict(strict),
		srprep.WithRegisterer(prometheus.DefaultRegisterer),
	}
}

func runTiles(ctx context.Context, args []string) {
	var fs = flag.NewFlagSet("tiles", flag.ExitOnError)
	var src = fs.String("src", "", "source image directory (required)")
	var hr = fs.String("hr", "", "HR tile output directory (required)")
	var lr = fs.String("lr", "", "LR tile output directory (required)")
	var size = fs.Int("size", srprep.DefaultSubImageSize, "tile edge length in pixels")
	var stride = fs.Int("stride", srprep.DefaultStride, "distance between tile origins in pixels")
	var scale = fs.Int("scale", srprep.DefaultUpscaleFactor, "upscale factor the LR tiles are degraded by")
	var hrPrefix = fs.String("hr-prefix", srprep.DefaultHRPrefix, "HR tile file name prefix")
	var lrPrefix = fs.String("lr-prefix", srprep.DefaultLRPrefix, "LR tile file name prefix")
	var numbering = fs.String("numbering", srprep.NumberGlobal.String(), "tile numbering: global or per-image")
	var workers = fs.Int("workers", 1, "number of images processed concurrently")
	var exts, backend, strict = commonFlags(fs)
	handleErr("parse flags", fs.Parse(args))

	if *src == "" || *hr == "" || *lr == "" {
		log.Error("-src, -hr and -lr are required")
		fs.PrintDefaults()
		os.Exit(2)
	}
	n, err := srprep.ParseNumbering(*numbering)
	handleErr("numbering", err)

	var opts = append(commonOptions(*exts, *backend, *strict), srprep.WithWorkers(*workers))
	var cfg = srprep.DefaultTilerConfig(*src, *hr, *lr, opts...)
	cfg.SubImageSize = *size
	cfg.Stride = *stride
	cfg.UpscaleFactor = *scale
	cfg.HRPrefix = *hrPrefix
	cfg.LRPrefix = *lrPrefix
	cfg.Numbering = n

	res, err := srprep.GenerateSubImages(ctx, cfg)
	handleErr("tiles", err)
	logResult(res)
}

func runValidation(ctx context.Context, args []string) {
	var fs = flag.NewFlagSet("val", flag.ExitOnError)
	var src = fs.String("src", "", "validation image directory (required)")
	var out = fs.String("out", "", "LR image output directory (required)")
	var scale = fs.Int("scale", srprep.DefaultUpscaleFactor, "upscale factor the LR images are degraded by")
	var prefix = fs.String("prefix", srprep.DefaultValidationPrefix, "LR image file name prefix")
	var workers = fs.Int("workers", 1, "number of images processed concurrently")
	var exts, backend, strict = commonFlags(fs)
	handleErr("parse flags", fs.Parse(args))

	if *src == "" || *out == "" {
		log.Error("-src and -out are required")
		fs.PrintDefaults()
		os.Exit(2)
	}

	var opts = append(commonOptions(*exts, *backend, *strict), srprep.WithWorkers(*workers))
	var cfg = srprep.DefaultValidationConfig(*src, *out, opts...)
	cfg.UpscaleFactor = *scale
	cfg.Prefix = *prefix

	res, err := srprep.GenerateValidationImages(ctx, cfg)
	handleErr("val", err)
	logResult(res)
}

func runPreview(args []string) {
	var fs = flag.NewFlagSet("preview", flag.ExitOnError)
	var hr = fs.String("hr", "", "HR image directory (required)")
	var lr = fs.String("lr", "", "LR image directory (required)")
	var out = fs.String("out", "", "contact sheet PNG to write (required)")
	var hrPrefix = fs.String("hr-prefix", srprep.DefaultHRPrefix, "HR file name prefix")
	var lrPrefix = fs.String("lr-prefix", srprep.DefaultLRPrefix, "LR file name prefix")
	var n = fs.Int("n", preview.DefaultMax, "number of pairs to draw, 0 for all")
	var cell = fs.Int("cell", preview.DefaultCell, "edge length of each image in pixels")
	handleErr("parse flags", fs.Parse(args))

	if *hr == "" || *lr == "" || *out == "" {
		log.Error("-hr, -lr and -out are required")
		fs.PrintDefaults()
		os.Exit(2)
	}

	pairs, err := preview.LoadPairs(*hr, *lr, *hrPrefix, *lrPrefix, *n)
	handleErr("load pairs", err)

	var opts = preview.DefaultOptions()
	opts.Cell = *cell
	opts.Max = *n
	sheet, err := preview.ContactSheet(pairs, opts)
	handleErr("contact sheet", err)
	handleErr("save", imageutil.SavePNG(sheet, *out))

	log.WithFields(log.Fields{
		"pairs": len(pairs),
		"file":  *out,
	}).Info("wrote contact sheet")
}

func logResult(res srprep.Result) {
	log.WithFields(log.Fields{
		"images":  res.Images,
		"outputs": res.Outputs,
		"skipped": len(res.Skipped),
		"psnr":    fmt.Sprintf("%.2f", res.PSNR),
	}).Info("done")
	for _, path := range res.Skipped {
		log.WithField("file", path).Warn("skipped")
	}
}

// handleErr is a convenience func to log and quit errors, all errors in this app are considered fatal
func handleErr(prefix string, err error) {
	if err != nil {
		log.Fatal(fmt.Errorf("%s: %w", prefix, err))
	}
}
