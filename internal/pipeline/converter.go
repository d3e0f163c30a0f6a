package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/image-to-scad/internal/heightfield"
	"github.com/ironsheep/image-to-scad/internal/imaging"
	"github.com/ironsheep/image-to-scad/internal/mesh"
	"github.com/ironsheep/image-to-scad/internal/relief"
	"github.com/ironsheep/image-to-scad/internal/render"
	"github.com/ironsheep/image-to-scad/internal/scad"
)

// Stage names passed to the progress callback.
const (
	StageLoad     = "Loading image"
	StageEstimate = "Estimating depth"
	StageProcess  = "Processing depth"
	StageBuild    = "Building mesh"
	StageEmit     = "Generating OpenSCAD"
	StageRender   = "Rendering STL"
)

// ProgressFunc receives a stage name and 0.0 when it starts, 1.0 when it
// finishes.
type ProgressFunc func(stage string, fraction float64)

// Options configures a Converter. The zero value works: luminance depth, a
// private image cache, no rendering, no logging.
type Options struct {
	// Estimator produces the depth field. Nil means LuminanceEstimator.
	Estimator imaging.DepthEstimator

	// Cache holds decoded images. Nil means a private cache.
	Cache *imaging.ImageCache

	// Renderer exports STL when a run asks for it. Nil means STL requests
	// fail.
	Renderer *render.Renderer

	// MaxWorkingSide fits images before depth estimation. Zero means
	// imaging.MaxWorkingSide; negative disables fitting.
	MaxWorkingSide int

	// Logger receives info output. Nil discards it.
	Logger *log.Logger

	// Tool names the generator in document headers.
	Tool string

	// Now stamps documents. Nil means time.Now.
	Now func() time.Time
}

// Request describes one conversion.
type Request struct {
	// Config holds the relief parameters.
	Config relief.Config

	// OutputPath is where the .scad document is saved. Empty keeps the
	// document in memory only.
	OutputPath string

	// RenderSTL also exports an STL next to the saved document. It needs
	// OutputPath.
	RenderSTL bool

	// Progress is called around each stage. May be nil.
	Progress ProgressFunc
}

// Result holds the output of a run and the intermediate artefacts.
type Result struct {
	RunID    string
	Source   string
	Document string
	ScadPath string
	STLPath  string

	// Depth is the raw field from the estimator, before processing.
	Depth   *relief.Grid
	Heights *heightfield.HeightField
	Solid   *mesh.Solid

	DepthStats  heightfield.Stats
	HeightStats heightfield.Stats

	Duration time.Duration
}

// Converter runs conversions. It is safe for concurrent use.
type Converter struct {
	opts Options
}

// New creates a Converter.
func New(opts Options) *Converter {
	if opts.Estimator == nil {
		opts.Estimator = imaging.LuminanceEstimator{}
	}
	if opts.Cache == nil {
		opts.Cache = imaging.NewImageCache()
	}
	if opts.MaxWorkingSide == 0 {
		opts.MaxWorkingSide = imaging.MaxWorkingSide
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Tool == "" {
		opts.Tool = "image-to-scad"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Converter{opts: opts}
}

// run carries per-conversion state.
type run struct {
	ctx      context.Context
	progress ProgressFunc
	logger   *log.Logger
	result   *Result
}

// stage checks for cancellation, then runs fn between progress reports.
func (r *run) stage(name string, fn func() error) error {
	if err := r.ctx.Err(); err != nil {
		return fmt.Errorf("cancelled before %s: %w", name, err)
	}
	r.report(name, 0)
	start := time.Now()
	if err := fn(); err != nil {
		return err
	}
	r.logger.Printf("run %s: %s done in %v", r.result.RunID, name, time.Since(start).Round(time.Microsecond))
	r.report(name, 1)
	return nil
}

func (r *run) report(name string, fraction float64) {
	if r.progress != nil {
		r.progress(name, fraction)
	}
}

func (c *Converter) newRun(ctx context.Context, source string, progress ProgressFunc) *run {
	return &run{
		ctx:      ctx,
		progress: progress,
		logger:   c.opts.Logger,
		result:   &Result{RunID: uuid.NewString(), Source: source},
	}
}

// ConvertFile converts the image at imagePath.
func (c *Converter) ConvertFile(ctx context.Context, imagePath string, req Request) (*Result, error) {
	if err := c.checkRequest(req); err != nil {
		return nil, err
	}
	start := time.Now()
	r := c.newRun(ctx, imagePath, req.Progress)

	var img image.Image
	err := r.stage(StageLoad, func() error {
		loaded, err := c.opts.Cache.Load(imagePath)
		if err != nil {
			return err
		}
		img = imaging.Prepare(loaded, c.opts.MaxWorkingSide)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.finish(r, img, req, start)
}

// ConvertImage converts an already decoded image. source names it in the
// document header.
func (c *Converter) ConvertImage(ctx context.Context, img image.Image, source string, req Request) (*Result, error) {
	if err := c.checkRequest(req); err != nil {
		return nil, err
	}
	start := time.Now()
	r := c.newRun(ctx, source, req.Progress)

	err := r.stage(StageLoad, func() error {
		if err := imaging.CheckSize(img); err != nil {
			return err
		}
		img = imaging.Prepare(img, c.opts.MaxWorkingSide)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.finish(r, img, req, start)
}

// ConvertDepth skips loading and estimation and converts a depth field
// directly.
func (c *Converter) ConvertDepth(ctx context.Context, depth *relief.Grid, source string, req Request) (*Result, error) {
	if err := c.checkRequest(req); err != nil {
		return nil, err
	}
	start := time.Now()
	r := c.newRun(ctx, source, req.Progress)
	r.result.Depth = depth
	return c.fromDepth(r, req, start)
}

// EstimateDepth loads imagePath and runs only depth estimation.
func (c *Converter) EstimateDepth(ctx context.Context, imagePath string) (*relief.Grid, error) {
	img, err := c.opts.Cache.Load(imagePath)
	if err != nil {
		return nil, err
	}
	return c.estimate(ctx, imaging.Prepare(img, c.opts.MaxWorkingSide))
}

func (c *Converter) estimate(ctx context.Context, img image.Image) (*relief.Grid, error) {
	depth, err := c.opts.Estimator.Estimate(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%s estimator: %w", c.opts.Estimator.Name(), err)
	}
	return depth, nil
}

func (c *Converter) checkRequest(req Request) error {
	if err := req.Config.Validate(); err != nil {
		return err
	}
	if req.RenderSTL && req.OutputPath == "" {
		return relief.ConfigError("pipeline", "STL rendering needs an output path for the .scad file")
	}
	if req.RenderSTL && c.opts.Renderer == nil {
		return relief.ConfigError("pipeline", "STL rendering requested but no renderer is configured")
	}
	return nil
}

func (c *Converter) finish(r *run, img image.Image, req Request, start time.Time) (*Result, error) {
	err := r.stage(StageEstimate, func() error {
		depth, err := c.estimate(r.ctx, img)
		r.result.Depth = depth
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.fromDepth(r, req, start)
}

func (c *Converter) fromDepth(r *run, req Request, start time.Time) (*Result, error) {
	res := r.result
	cfg := req.Config

	err := r.stage(StageProcess, func() error {
		hf, err := heightfield.Process(res.Depth, cfg)
		if err != nil {
			return err
		}
		res.Heights = hf
		res.DepthStats = heightfield.Analyze(res.Depth)
		res.HeightStats = heightfield.Analyze(&hf.Grid)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(StageBuild, func() error {
		s, err := mesh.Build(res.Heights, cfg.ModelWidth)
		res.Solid = s
		return err
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(StageEmit, func() error {
		meta := scad.Metadata{
			Tool:        c.opts.Tool,
			Source:      res.Source,
			GeneratedAt: c.opts.Now(),
			RunID:       res.RunID,
		}
		doc, err := scad.Emit(res.Solid, cfg, meta)
		if err != nil {
			return err
		}
		res.Document = doc

		if req.OutputPath == "" {
			return nil
		}
		res.ScadPath, err = SaveScad(req.OutputPath, doc)
		if err != nil {
			return err
		}
		r.logger.Printf("Saved OpenSCAD file: %s", res.ScadPath)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.RenderSTL {
		err = r.stage(StageRender, func() error {
			stl, err := c.opts.Renderer.RenderSTL(r.ctx, res.ScadPath, "")
			if err != nil {
				return err
			}
			res.STLPath = stl
			r.logger.Printf("Saved STL file: %s", stl)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	r.logger.Printf("run %s: %dx%d grid, %d vertices, %d faces in %v",
		res.RunID, res.Solid.Cols, res.Solid.Rows, len(res.Solid.Vertices), len(res.Solid.Faces),
		res.Duration.Round(time.Millisecond))
	return res, nil
}
