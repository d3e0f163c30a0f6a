package imaging

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/image-to-scad/internal/relief"
)

// gradient returns a w x h gray image brightening left to right.
func gradient(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 255 / (w - 1))})
		}
	}
	return img
}

func TestLuminanceEstimator_BrighterIsNearer(t *testing.T) {
	for _, radius := range []float64{0, 1.5} {
		g, err := LuminanceEstimator{DenoiseRadius: radius}.Estimate(context.Background(), gradient(64, 8))
		if err != nil {
			t.Fatalf("Estimate(radius=%v) failed: %v", radius, err)
		}
		if g.Rows != 8 || g.Cols != 64 {
			t.Fatalf("shape: got %dx%d, want 8x64", g.Rows, g.Cols)
		}
		row := g.Row(4)
		if !(row[0] < row[32] && row[32] < row[63]) {
			t.Errorf("radius %v: depth should increase with brightness: %v %v %v", radius, row[0], row[32], row[63])
		}
	}
}

func TestLuminanceEstimator_Extremes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{0, 0, 0, 255})
	img.Set(1, 0, color.RGBA{255, 255, 255, 255})

	g, err := LuminanceEstimator{}.Estimate(context.Background(), img)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if math.Abs(g.At(0, 0)) > 1e-6 {
		t.Errorf("black: got %v, want 0", g.At(0, 0))
	}
	if math.Abs(g.At(0, 1)-1) > 1e-3 {
		t.Errorf("white: got %v, want 1", g.At(0, 1))
	}
}

func TestDepthMapReader_Gray16Precision(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 3, 2))
	img.SetGray16(0, 0, color.Gray16{Y: 0})
	img.SetGray16(1, 0, color.Gray16{Y: 1})
	img.SetGray16(2, 1, color.Gray16{Y: 0xffff})

	g, err := DepthMapReader{}.Estimate(context.Background(), img)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if g.At(0, 1) != 1.0/0xffff {
		t.Errorf("one step: got %v, want %v", g.At(0, 1), 1.0/0xffff)
	}
	if g.At(1, 2) != 1 {
		t.Errorf("white: got %v, want 1", g.At(1, 2))
	}
}

func TestDepthMapReader_ColorImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{0, 0, 0, 255})
	img.Set(1, 0, color.NRGBA{255, 255, 255, 255})

	g, err := DepthMapReader{}.Estimate(context.Background(), img)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if g.At(0, 0) != 0 || g.At(0, 1) != 1 {
		t.Errorf("got %v, want [0 1]", g.Values)
	}
}

func TestDepthMapReader_FromFile(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			src.SetGray16(x, y, color.Gray16{Y: uint16(y * 1000)})
		}
	}
	path := writePNG(t, t.TempDir(), "depth.png", src)

	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	g, err := DepthMapReader{}.Estimate(context.Background(), img)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if want := 63000.0 / 0xffff; g.At(63, 10) != want {
		t.Errorf("last row: got %v, want %v", g.At(63, 10), want)
	}
}

func TestEstimators_Errors(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	estimators := []DepthEstimator{LuminanceEstimator{}, DepthMapReader{}}
	for _, e := range estimators {
		t.Run(e.Name(), func(t *testing.T) {
			if _, err := e.Estimate(context.Background(), nil); !errors.Is(err, ErrDepthEstimation) {
				t.Errorf("nil image: got %v, want ErrDepthEstimation", err)
			}
			empty := image.NewGray(image.Rect(0, 0, 0, 0))
			if _, err := e.Estimate(context.Background(), empty); !errors.Is(err, ErrDepthEstimation) {
				t.Errorf("empty image: got %v, want ErrDepthEstimation", err)
			}
			if _, err := e.Estimate(cancelled, gradient(4, 4)); !errors.Is(err, context.Canceled) {
				t.Errorf("cancelled context: got %v, want context.Canceled", err)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	g, err := relief.GridFromRows([][]float64{{-1, 0}, {1, 3}})
	if err != nil {
		t.Fatalf("GridFromRows failed: %v", err)
	}

	img, err := Preview(g)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if img.Gray16At(0, 0).Y != 0 {
		t.Errorf("minimum should be black, got %d", img.Gray16At(0, 0).Y)
	}
	if img.Gray16At(1, 1).Y != 0xffff {
		t.Errorf("maximum should be white, got %d", img.Gray16At(1, 1).Y)
	}

	flat := relief.NewGrid(2, 2)
	img, err = Preview(flat)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if img.Gray16At(1, 0).Y != 0x8000 {
		t.Errorf("uniform grid should be mid-gray, got %d", img.Gray16At(1, 0).Y)
	}

	if _, err := Preview(&relief.Grid{}); !errors.Is(err, relief.ErrDegenerateInput) {
		t.Errorf("empty grid: got %v, want ErrDegenerateInput", err)
	}
}

func TestSavePreview(t *testing.T) {
	g := relief.NewGrid(4, 6)
	for i := range g.Values {
		g.Values[i] = float64(i)
	}

	dir := t.TempDir()
	path, err := SavePreview(filepath.Join(dir, "nested", "depth.jpg"), g)
	if err != nil {
		t.Fatalf("SavePreview failed: %v", err)
	}
	if filepath.Ext(path) != ".png" {
		t.Errorf("extension should be forced to .png, got %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("preview not written: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig failed: %v", err)
	}
	if cfg.Width != 6 || cfg.Height != 4 {
		t.Errorf("preview size: got %dx%d, want 6x4", cfg.Width, cfg.Height)
	}
}

func TestNewEstimator(t *testing.T) {
	tests := []struct {
		name    string
		radius  float64
		want    string
		wantErr bool
	}{
		{"", 0, EstimatorLuminance, false},
		{"luminance", 2, EstimatorLuminance, false},
		{"depth-map", 0, EstimatorDepthMap, false},
		{"luminance", -1, "", true},
		{"midas", 0, "", true},
	}
	for _, tt := range tests {
		e, err := NewEstimator(tt.name, tt.radius)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewEstimator(%q, %v): error = %v, wantErr %v", tt.name, tt.radius, err, tt.wantErr)
			continue
		}
		if err == nil && e.Name() != tt.want {
			t.Errorf("NewEstimator(%q): got %s, want %s", tt.name, e.Name(), tt.want)
		}
	}
}
