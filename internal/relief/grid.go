package relief

import (
	"fmt"
	"math"
)

// Grid is a dense row-major 2D grid of float64 values.
//
// It backs both the raw depth field handed over by a depth estimator and the
// physical height field produced from it. Values[r*Cols+c] is the cell at
// row r, column c.
type Grid struct {
	Rows   int
	Cols   int
	Values []float64
}

// NewGrid allocates a zero-filled grid of the given size.
func NewGrid(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Grid{
		Rows:   rows,
		Cols:   cols,
		Values: make([]float64, rows*cols),
	}
}

// GridFromRows builds a grid from nested rows. All rows must have the same length.
func GridFromRows(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 {
		return NewGrid(0, 0), nil
	}
	cols := len(rows[0])
	g := NewGrid(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("ragged grid: row %d has %d columns, want %d", r, len(row), cols)
		}
		copy(g.Values[r*cols:], row)
	}
	return g, nil
}

// At returns the value at row r, column c.
func (g *Grid) At(r, c int) float64 {
	return g.Values[r*g.Cols+c]
}

// Set stores v at row r, column c.
func (g *Grid) Set(r, c int, v float64) {
	g.Values[r*g.Cols+c] = v
}

// Row returns the backing slice for row r. Writes go through to the grid.
func (g *Grid) Row(r int) []float64 {
	return g.Values[r*g.Cols : (r+1)*g.Cols]
}

// Len returns the number of cells.
func (g *Grid) Len() int {
	return g.Rows * g.Cols
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{Rows: g.Rows, Cols: g.Cols, Values: make([]float64, len(g.Values))}
	copy(out.Values, g.Values)
	return out
}

// ToRows copies the grid into nested rows, mostly for tests and debugging.
func (g *Grid) ToRows() [][]float64 {
	out := make([][]float64, g.Rows)
	for r := range out {
		out[r] = append([]float64(nil), g.Row(r)...)
	}
	return out
}

// CheckShape verifies the grid has at least minRows x minCols cells, that the
// backing slice matches its declared size, and that every value is finite.
// stage is used to label the returned error.
func (g *Grid) CheckShape(stage string, minRows, minCols int) error {
	if g == nil {
		return DegenerateError(stage, "grid is nil")
	}
	if g.Rows < minRows || g.Cols < minCols {
		return DegenerateError(stage, "grid is %dx%d (rows x cols), need at least %dx%d",
			g.Rows, g.Cols, minRows, minCols)
	}
	if len(g.Values) != g.Rows*g.Cols {
		return DegenerateError(stage, "grid storage has %d values, want %d for %dx%d",
			len(g.Values), g.Rows*g.Cols, g.Rows, g.Cols)
	}
	for i, v := range g.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return DegenerateError(stage, "non-finite value %v at row %d, column %d", v, i/g.Cols, i%g.Cols)
		}
	}
	return nil
}
