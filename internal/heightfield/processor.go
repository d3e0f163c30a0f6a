package heightfield

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/image-to-scad/internal/relief"
)

const stage = "heightfield"

// HeightField is a grid of physical heights in millimetres.
//
// Base and Top record the inclusive range every value was mapped into.
// Aspect is the rows/cols ratio of the depth field the heights came from,
// which resampling only approximates.
type HeightField struct {
	relief.Grid

	// Base is the lowest permitted height (the configured base thickness).
	Base float64

	// Top is the highest permitted height (base thickness + max height).
	Top float64

	// Aspect is the source rows/cols ratio. Zero means the grid's own.
	Aspect float64
}

// ModelHeight returns the physical Y extent for a model of the given width,
// following the source aspect ratio.
func (h *HeightField) ModelHeight(width float64) float64 {
	if h.Aspect > 0 {
		return width * h.Aspect
	}
	return relief.ModelHeight(width, h.Rows, h.Cols)
}

// Range returns the smallest and largest height actually present.
func (h *HeightField) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range h.Values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// Process converts a raw depth field into a physical height field.
//
// Parameters:
//   - depth: Raw depth values in any range. Must have at least one row and
//     one column, and contain only finite values. It is not modified.
//   - cfg: Conversion parameters. BaseThickness, MaxHeight and DetailLevel
//     drive the result; SmoothingEnabled/SmoothingStrength and InvertDepth
//     toggle the optional passes.
//
// Returns:
//   - *HeightField: Heights in [cfg.BaseThickness, cfg.TopHeight()], possibly
//     resampled to a different size than depth.
//   - error: A relief.StageError of kind ErrConfiguration for an invalid cfg,
//     or ErrDegenerateInput for an empty or non-finite depth field.
//
// # Degenerate Input
//
// A field whose values are all (nearly) equal has no relief to scale. Every
// cell is then mapped to the midpoint 0.5 before height mapping, which gives
// a flat plate at BaseThickness + MaxHeight/2 rather than an error. Smoothing
// and resampling are skipped for such a field, so the level is exact.
func Process(depth *relief.Grid, cfg relief.Config) (*HeightField, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := depth.CheckShape(stage, 1, 1); err != nil {
		return nil, err
	}

	field := Normalize(depth)

	if cfg.InvertDepth {
		field = Invert(field)
	}

	rows, cols := TargetSize(field.Rows, field.Cols, cfg.DetailLevel)
	if level, flat := uniformLevel(field); flat {
		field = relief.NewGrid(rows, cols)
		for i := range field.Values {
			field.Values[i] = level
		}
	} else {
		if cfg.SmoothingEnabled {
			field = Smooth(field, cfg.SmoothingStrength)
		}
		field = Resample(field, rows, cols)
	}

	hf := MapHeights(field, cfg.BaseThickness, cfg.MaxHeight)
	hf.Aspect = float64(depth.Rows) / float64(depth.Cols)
	return hf, nil
}

// uniformLevel reports whether every cell holds the same value, and that value.
func uniformLevel(g *relief.Grid) (float64, bool) {
	lo, hi := floats.Min(g.Values), floats.Max(g.Values)
	return lo, lo == hi
}
