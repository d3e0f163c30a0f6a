package heightfield

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/image-to-scad/internal/relief"
)

// Stats summarizes the values of a grid.
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"` // population standard deviation
	Rows   int     `json:"rows"`
	Cols   int     `json:"cols"`
}

// Analyze computes summary statistics for a grid. An empty grid yields zero
// statistics with its shape filled in.
func Analyze(g *relief.Grid) Stats {
	s := Stats{Rows: g.Rows, Cols: g.Cols}
	if len(g.Values) == 0 {
		return s
	}
	s.Min = floats.Min(g.Values)
	s.Max = floats.Max(g.Values)
	s.Mean, s.StdDev = stat.PopMeanStdDev(g.Values, nil)
	return s
}
