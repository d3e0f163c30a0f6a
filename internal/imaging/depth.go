package imaging

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-to-scad/internal/relief"
)

// DepthEstimator derives a relative depth field from an image. Larger values
// are nearer to the viewer; the range is arbitrary.
type DepthEstimator interface {
	// Name identifies the estimator in logs and tool output.
	Name() string

	// Estimate returns a grid with one value per pixel, row 0 at the top.
	Estimate(ctx context.Context, img image.Image) (*relief.Grid, error)
}

// LuminanceEstimator treats perceptual lightness as depth: brighter pixels
// come forward. It stands in for a learned monocular depth model and works
// well for lit objects against dark backgrounds.
type LuminanceEstimator struct {
	// DenoiseRadius applies a Gaussian pre-blur of this radius in pixels
	// before sampling. Zero disables it.
	DenoiseRadius float64
}

// Name implements DepthEstimator.
func (e LuminanceEstimator) Name() string { return EstimatorLuminance }

// Estimate implements DepthEstimator using CIE L*.
func (e LuminanceEstimator) Estimate(ctx context.Context, img image.Image) (*relief.Grid, error) {
	if err := checkInput(ctx, img); err != nil {
		return nil, err
	}

	src := img
	if e.DenoiseRadius > 0 {
		src = blur.Gaussian(img, e.DenoiseRadius)
	}

	b := src.Bounds()
	g := relief.NewGrid(b.Dy(), b.Dx())
	for y := 0; y < b.Dy(); y++ {
		row := g.Row(y)
		for x := 0; x < b.Dx(); x++ {
			row[x] = lightness(src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return g, nil
}

// lightness returns CIE L* in [0,1]. Fully transparent pixels count as
// black.
func lightness(c color.Color) float64 {
	cc, ok := colorful.MakeColor(c)
	if !ok {
		return 0
	}
	l, _, _ := cc.Lab()
	return l
}

// DepthMapReader reads a depth map produced by an external model: a
// grayscale image where brighter means nearer. 16-bit grayscale keeps its
// full precision; anything else is converted to 8-bit gray first.
type DepthMapReader struct{}

// Name implements DepthEstimator.
func (DepthMapReader) Name() string { return EstimatorDepthMap }

// Estimate implements DepthEstimator.
func (DepthMapReader) Estimate(ctx context.Context, img image.Image) (*relief.Grid, error) {
	if err := checkInput(ctx, img); err != nil {
		return nil, err
	}

	b := img.Bounds()
	g := relief.NewGrid(b.Dy(), b.Dx())

	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < b.Dy(); y++ {
			row := g.Row(y)
			for x := 0; x < b.Dx(); x++ {
				row[x] = float64(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y) / 0xffff
			}
		}
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			row := g.Row(y)
			for x := 0; x < b.Dx(); x++ {
				row[x] = float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y) / 0xff
			}
		}
	default:
		gray := imaging.Grayscale(img)
		for y := 0; y < b.Dy(); y++ {
			row := g.Row(y)
			for x := 0; x < b.Dx(); x++ {
				row[x] = float64(gray.Pix[y*gray.Stride+x*4]) / 0xff
			}
		}
	}
	return g, nil
}

func checkInput(ctx context.Context, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("%w: image is nil", ErrDepthEstimation)
	}
	if b := img.Bounds(); b.Empty() {
		return fmt.Errorf("%w: image is empty", ErrDepthEstimation)
	}
	return nil
}

// Estimator names accepted by NewEstimator.
const (
	EstimatorLuminance = "luminance"
	EstimatorDepthMap  = "depth-map"
)

// NewEstimator returns the estimator called name. An empty name selects
// the luminance estimator. denoiseRadius only applies to luminance.
func NewEstimator(name string, denoiseRadius float64) (DepthEstimator, error) {
	switch name {
	case "", EstimatorLuminance:
		if denoiseRadius < 0 {
			return nil, fmt.Errorf("denoise radius must be non-negative, got %v", denoiseRadius)
		}
		return LuminanceEstimator{DenoiseRadius: denoiseRadius}, nil
	case EstimatorDepthMap:
		return DepthMapReader{}, nil
	default:
		return nil, fmt.Errorf("unknown depth estimator %q (want %q or %q)", name, EstimatorLuminance, EstimatorDepthMap)
	}
}
