package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ironsheep/image-to-scad/internal/config"
	"github.com/ironsheep/image-to-scad/internal/imaging"
	"github.com/ironsheep/image-to-scad/internal/pipeline"
	"github.com/ironsheep/image-to-scad/internal/relief"
	"github.com/ironsheep/image-to-scad/internal/render"
	"github.com/ironsheep/image-to-scad/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options holds everything parsed from the command line.
type options struct {
	output     string
	configPath string
	preview    string
	renderSTL  bool
	verbose    bool
	quiet      bool
	version    bool

	// overrides collects the flags that were given explicitly, keyed like
	// the config file so they layer on top of it.
	overrides config.File
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "mcp" {
		return runServer(ctx, args[1:], stderr)
	}

	opts, input, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	if opts.version {
		printVersion(stdout)
		return exitOK
	}

	logger := newLogger(stderr, opts.verbose)
	logger.Printf("image-to-scad %s (built %s, commit %s)", Version, BuildTime, GitCommit)

	file, err := loadConfig(opts.configPath, &opts.overrides)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	cfg := relief.DefaultConfig()
	file.Apply(&cfg)

	estimator, err := imaging.NewEstimator(file.GetEstimator(), file.GetDenoiseRadius())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	renderer := render.New(file.GetOpenSCADPath())
	renderer.Timeout = file.GetRenderTimeout()
	renderer.Logger = logger

	conv := pipeline.New(pipeline.Options{
		Estimator: estimator,
		Renderer:  renderer,
		Logger:    logger,
		Tool:      "image-to-scad " + Version,
	})

	if opts.preview != "" {
		return runPreview(ctx, conv, input, opts.preview, stdout, stderr)
	}

	output := opts.output
	if output == "" {
		output = pipeline.OutputPathFor(input, "", ".scad")
	}

	req := pipeline.Request{
		Config:     cfg,
		OutputPath: output,
		RenderSTL:  opts.renderSTL,
	}
	if !opts.quiet {
		req.Progress = progressPrinter(stderr)
	}

	res, err := conv.ConvertFile(ctx, input, req)
	if err != nil {
		return reportError(ctx, stderr, err)
	}

	if !opts.quiet {
		fmt.Fprintf(stdout, "Saved OpenSCAD model to %s\n", res.ScadPath)
		if res.STLPath != "" {
			fmt.Fprintf(stdout, "Saved STL to %s\n", res.STLPath)
		}
		fmt.Fprintf(stdout, "  Size: %.2f x %.2f x %.2f mm\n", res.Solid.Width, res.Solid.Length, cfg.TopHeight())
		fmt.Fprintf(stdout, "  Mesh: %d x %d grid, %d vertices, %d faces\n",
			res.Solid.Cols, res.Solid.Rows, len(res.Solid.Vertices), len(res.Solid.Faces))
		fmt.Fprintf(stdout, "  Time: %v\n", res.Duration.Round(time.Millisecond))
	}
	return exitOK
}

func parseArgs(args []string, stderr io.Writer) (*options, string, error) {
	opts := &options{}
	defaults := relief.DefaultConfig()

	fs := flag.NewFlagSet("image-to-scad", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(fs, stderr) }

	fs.StringVar(&opts.output, "o", "", "output .scad path (default: next to the image)")
	fs.StringVar(&opts.configPath, "config", "", "JSON file with parameter overrides")
	fs.StringVar(&opts.preview, "preview", "", "save the depth field as a PNG to this path and exit")
	fs.BoolVar(&opts.renderSTL, "stl", false, "also export an STL with OpenSCAD")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")
	fs.BoolVar(&opts.quiet, "q", false, "suppress progress and summary output")
	fs.BoolVar(&opts.version, "version", false, "print version information")

	baseThickness := fs.Float64("base-thickness", defaults.BaseThickness, "minimum plate thickness in mm")
	maxHeight := fs.Float64("max-height", defaults.MaxHeight, "relief height in mm above the base")
	width := fs.Float64("width", defaults.ModelWidth, "model width in mm")
	detail := fs.Float64("detail", defaults.DetailLevel, "grid density multiplier (0.5 to 2.0)")
	noSmooth := fs.Bool("no-smooth", false, "disable depth smoothing")
	strength := fs.Float64("smooth-strength", defaults.SmoothingStrength, "smoothing sigma in grid cells")
	invert := fs.Bool("invert", false, "swap foreground and background")
	estimator := fs.String("estimator", imaging.EstimatorLuminance, "depth source: luminance or depth-map")
	denoise := fs.Float64("denoise", 0, "Gaussian pre-blur radius in pixels for the luminance source")
	openscad := fs.String("openscad", "", "path to the OpenSCAD executable")
	timeout := fs.String("render-timeout", render.DefaultTimeout.String(), "STL export time limit")

	// Flags may follow the image path: keep parsing after each positional
	// argument. Everything after "--" is positional.
	var positional []string
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return nil, "", err
		}
		after := fs.Args()
		if used := len(rest) - len(after); used > 0 && rest[used-1] == "--" {
			positional = append(positional, after...)
			break
		}
		if len(after) == 0 {
			break
		}
		positional = append(positional, after[0])
		rest = after[1:]
	}

	o := &opts.overrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-thickness":
			o.BaseThickness = baseThickness
		case "max-height":
			o.MaxHeight = maxHeight
		case "width":
			o.ModelWidth = width
		case "detail":
			o.DetailLevel = detail
		case "no-smooth":
			smoothing := !*noSmooth
			o.Smoothing = &smoothing
		case "smooth-strength":
			o.SmoothingStrength = strength
		case "invert":
			o.InvertDepth = invert
		case "estimator":
			o.Estimator = estimator
		case "denoise":
			o.DenoiseRadius = denoise
		case "openscad":
			o.OpenSCADPath = openscad
		case "render-timeout":
			o.RenderTimeout = timeout
		}
	})

	if opts.version {
		return opts, "", nil
	}
	if opts.verbose && opts.quiet {
		return nil, "", fmt.Errorf("-v and -q cannot be combined")
	}
	if len(positional) != 1 {
		fs.Usage()
		return nil, "", fmt.Errorf("expected exactly one input image, got %d arguments", len(positional))
	}
	return opts, positional[0], nil
}

// loadConfig reads the optional config file and layers the flag overrides
// on top of it.
func loadConfig(path string, overrides *config.File) (*config.File, error) {
	file := &config.File{}
	if path != "" {
		var err error
		if file, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	merge(file, overrides)
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

func merge(dst, src *config.File) {
	if src.BaseThickness != nil {
		dst.BaseThickness = src.BaseThickness
	}
	if src.MaxHeight != nil {
		dst.MaxHeight = src.MaxHeight
	}
	if src.ModelWidth != nil {
		dst.ModelWidth = src.ModelWidth
	}
	if src.DetailLevel != nil {
		dst.DetailLevel = src.DetailLevel
	}
	if src.Smoothing != nil {
		dst.Smoothing = src.Smoothing
	}
	if src.SmoothingStrength != nil {
		dst.SmoothingStrength = src.SmoothingStrength
	}
	if src.InvertDepth != nil {
		dst.InvertDepth = src.InvertDepth
	}
	if src.Estimator != nil {
		dst.Estimator = src.Estimator
	}
	if src.DenoiseRadius != nil {
		dst.DenoiseRadius = src.DenoiseRadius
	}
	if src.OpenSCADPath != nil {
		dst.OpenSCADPath = src.OpenSCADPath
	}
	if src.RenderTimeout != nil {
		dst.RenderTimeout = src.RenderTimeout
	}
}

func runPreview(ctx context.Context, conv *pipeline.Converter, input, output string, stdout, stderr io.Writer) int {
	depth, err := conv.EstimateDepth(ctx, input)
	if err != nil {
		return reportError(ctx, stderr, err)
	}
	path, err := imaging.SavePreview(output, depth)
	if err != nil {
		return reportError(ctx, stderr, err)
	}
	fmt.Fprintf(stdout, "Saved depth preview to %s\n", path)
	return exitOK
}

func runServer(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("image-to-scad mcp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "JSON file with openscad_path and render_timeout")
	openscad := fs.String("openscad", "", "path to the OpenSCAD executable")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	overrides := &config.File{}
	if *openscad != "" {
		overrides.OpenSCADPath = openscad
	}
	file, err := loadConfig(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	logger := newLogger(stderr, *verbose)
	logger.Printf("image-to-scad MCP server %s (built %s, commit %s)", Version, BuildTime, GitCommit)

	renderer := render.New(file.GetOpenSCADPath())
	renderer.Timeout = file.GetRenderTimeout()
	renderer.Logger = logger

	srv := server.New(server.Options{
		Version:  Version,
		Renderer: renderer,
		Logger:   logger,
	})
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "Server error: %v\n", err)
		return exitError
	}
	if ctx.Err() != nil {
		return exitInterrupted
	}
	return exitOK
}

// newLogger writes debug output to stderr when -v is given or
// IMAGE_TO_SCAD_LOG_LEVEL=debug, and discards it otherwise.
func newLogger(stderr io.Writer, verbose bool) *log.Logger {
	if verbose || os.Getenv("IMAGE_TO_SCAD_LOG_LEVEL") == "debug" {
		return log.New(stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
	}
	return log.New(io.Discard, "", 0)
}

func progressPrinter(w io.Writer) pipeline.ProgressFunc {
	return func(stage string, fraction float64) {
		if fraction == 0 {
			fmt.Fprintf(w, "%s...\n", stage)
		}
	}
}

func reportError(ctx context.Context, stderr io.Writer, err error) int {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, "Interrupted")
		return exitInterrupted
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitError
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "image-to-scad %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "image-to-scad - convert an image into a 3D-printable OpenSCAD relief")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  image-to-scad [options] <image> [options]")
	fmt.Fprintln(w, "  image-to-scad mcp [--config file] [--openscad path] [-v]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Settings are applied in order: defaults, --config file, flags.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  IMAGE_TO_SCAD_LOG_LEVEL=debug    Enable debug logging")
}
