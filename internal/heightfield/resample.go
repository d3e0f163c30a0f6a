package heightfield

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/ironsheep/image-to-scad/internal/relief"
)

// Resolution limits applied by TargetSize.
const (
	MinResolution = 2
	MaxResolution = 2048
)

// TargetSize derives the resampled grid size for a detail level.
//
// Sizes are built from a base grid at relief.MinDetailLevel: its columns are
// cols*sqrt(MinDetailLevel) and its rows follow from the columns and the
// source aspect ratio. Both axes of the base grid are then scaled by
// sqrt(detail/MinDetailLevel), so detail 2.0 is exactly twice the 0.5 grid
// per axis and four times the points. When the larger axis would exceed
// MaxResolution both axes shrink by the same factor. Each axis is kept at
// least MinResolution; an axis already below MinResolution is left alone
// rather than inventing rows or columns. A detail level of exactly 1 keeps
// the size.
func TargetSize(rows, cols int, detail float64) (int, int) {
	if detail == 1.0 {
		return rows, cols
	}

	baseCols := math.Round(float64(cols) * math.Sqrt(relief.MinDetailLevel))
	baseRows := math.Round(float64(rows) * math.Sqrt(relief.MinDetailLevel))
	if rows >= MinResolution && cols >= MinResolution {
		baseRows = math.Round(baseCols * float64(rows) / float64(cols))
	}

	scale := math.Sqrt(detail / relief.MinDetailLevel)
	r, c := math.Round(baseRows*scale), math.Round(baseCols*scale)
	if big := math.Max(r, c); big > MaxResolution {
		f := MaxResolution / big
		r, c = math.Round(r*f), math.Round(c*f)
	}
	return fitAxis(rows, r), fitAxis(cols, c)
}

func fitAxis(n int, scaled float64) int {
	if n < MinResolution {
		return n
	}
	return clamp(int(scaled), MinResolution, MaxResolution)
}

// Resample resizes a normalized field to rows x cols using Catmull-Rom
// (bicubic) interpolation. When shrinking, the kernel widens with the scale
// factor so every source cell contributes (area-aware), which avoids the
// blocky relief nearest-neighbour sampling would give.
//
// Values travel through a 16-bit grayscale image, so the result is quantized
// to 1/65535 and clamped to [0,1]. A request for the current size returns an
// unmodified copy.
func Resample(g *relief.Grid, rows, cols int) *relief.Grid {
	if rows == g.Rows && cols == g.Cols {
		return g.Clone()
	}

	src := image.NewGray16(image.Rect(0, 0, g.Cols, g.Rows))
	for y := 0; y < g.Rows; y++ {
		for x, v := range g.Row(y) {
			src.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(clamp01(v) * math.MaxUint16))})
		}
	}

	dst := image.NewGray16(image.Rect(0, 0, cols, rows))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := relief.NewGrid(rows, cols)
	for y := 0; y < rows; y++ {
		row := out.Row(y)
		for x := range row {
			row[x] = float64(dst.Gray16At(x, y).Y) / math.MaxUint16
		}
	}
	return out
}
