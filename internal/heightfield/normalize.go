package heightfield

import (
	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/image-to-scad/internal/relief"
)

// FlatEpsilon is the smallest value span treated as real relief. Fields with
// a narrower span are considered uniform.
const FlatEpsilon = 1e-6

// FlatLevel is the normalized value assigned to every cell of a uniform field.
const FlatLevel = 0.5

// Normalize min-max scales g into [0,1]. A uniform field (span below
// FlatEpsilon) maps every cell to FlatLevel instead of dividing by zero.
func Normalize(g *relief.Grid) *relief.Grid {
	out := relief.NewGrid(g.Rows, g.Cols)
	if len(g.Values) == 0 {
		return out
	}

	lo := floats.Min(g.Values)
	hi := floats.Max(g.Values)
	span := hi - lo

	if span < FlatEpsilon {
		for i := range out.Values {
			out.Values[i] = FlatLevel
		}
		return out
	}

	for i, v := range g.Values {
		out.Values[i] = (v - lo) / span
	}
	return out
}

// Invert flips a normalized field so foreground becomes background.
// Applying it twice returns the original values.
func Invert(g *relief.Grid) *relief.Grid {
	out := relief.NewGrid(g.Rows, g.Cols)
	for i, v := range g.Values {
		out.Values[i] = 1 - v
	}
	return out
}

// MapHeights converts a normalized field into physical heights:
// base + v*maxHeight. Values are clamped so the result always lies in
// [base, base+maxHeight] even if resampling overshot [0,1].
func MapHeights(g *relief.Grid, base, maxHeight float64) *HeightField {
	hf := &HeightField{
		Grid: relief.Grid{Rows: g.Rows, Cols: g.Cols, Values: make([]float64, len(g.Values))},
		Base: base,
		Top:  base + maxHeight,
	}
	for i, v := range g.Values {
		hf.Values[i] = base + clamp01(v)*maxHeight
	}
	return hf
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
