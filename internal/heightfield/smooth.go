package heightfield

import (
	"math"
	"runtime"
	"sync"

	"github.com/ironsheep/image-to-scad/internal/relief"
)

// Smooth applies a separable Gaussian blur with standard deviation sigma
// (in grid cells) to a normalized field.
//
// The kernel radius is ceil(3*sigma), capped at the larger grid dimension:
// with clamped edges a wider kernel only adds more copies of the border
// cells. Border cells use clamped (replicated)
// edge values, so nothing wraps around and no dark or bright rim appears at
// the plate edge. A sigma of zero (or less) returns an unmodified copy.
//
// The horizontal and vertical passes each split rows across goroutines; every
// output row is written by exactly one worker, so the result is identical to
// a serial pass.
func Smooth(g *relief.Grid, sigma float64) *relief.Grid {
	if sigma <= 0 || g.Len() == 0 {
		return g.Clone()
	}

	kernel := gaussianKernel(sigma, max(g.Rows, g.Cols))
	radius := len(kernel) / 2
	width, height := g.Cols, g.Rows

	horizontal := relief.NewGrid(height, width)
	forEachRow(height, func(y int) {
		src := g.Row(y)
		dst := horizontal.Row(y)
		for x := 0; x < width; x++ {
			var sum float64
			for k := -radius; k <= radius; k++ {
				sum += src[clamp(x+k, 0, width-1)] * kernel[k+radius]
			}
			dst[x] = sum
		}
	})

	out := relief.NewGrid(height, width)
	forEachRow(height, func(y int) {
		dst := out.Row(y)
		for k := -radius; k <= radius; k++ {
			src := horizontal.Row(clamp(y+k, 0, height-1))
			w := kernel[k+radius]
			for x := 0; x < width; x++ {
				dst[x] += src[x] * w
			}
		}
	})

	return out
}

// gaussianKernel returns normalized 1D weights for the given sigma, with a
// radius of at most maxRadius.
func gaussianKernel(sigma float64, maxRadius int) []float64 {
	radius := maxRadius
	if r := math.Ceil(3 * sigma); r < float64(maxRadius) {
		radius = int(r)
	}
	kernel := make([]float64, 2*radius+1)

	var sum float64
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// forEachRow calls fn for every row index in [0, rows), spreading rows across
// up to GOMAXPROCS goroutines. It returns once every call has finished.
func forEachRow(rows int, fn func(y int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > rows {
		workers = rows
	}
	if workers <= 1 {
		for y := 0; y < rows; y++ {
			fn(y)
		}
		return
	}

	var wg sync.WaitGroup
	next := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range next {
				fn(y)
			}
		}()
	}
	for y := 0; y < rows; y++ {
		next <- y
	}
	close(next)
	wg.Wait()
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
