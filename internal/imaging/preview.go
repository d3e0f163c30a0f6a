package imaging

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/image-to-scad/internal/relief"
)

// Preview renders a grid as 16-bit grayscale, stretching its range to full
// black..white. A uniform grid renders mid-gray.
func Preview(g *relief.Grid) (*image.Gray16, error) {
	if err := g.CheckShape("preview", 1, 1); err != nil {
		return nil, err
	}

	lo, hi := floats.Min(g.Values), floats.Max(g.Values)
	span := hi - lo

	img := image.NewGray16(image.Rect(0, 0, g.Cols, g.Rows))
	for i := 0; i < g.Rows; i++ {
		for j, v := range g.Row(i) {
			f := 0.5
			if span > 0 {
				f = (v - lo) / span
			}
			img.SetGray16(j, i, color.Gray16{Y: uint16(f*0xffff + 0.5)})
		}
	}
	return img, nil
}

// SavePreview writes Preview(g) as a PNG, creating parent directories. The
// extension is forced to .png.
func SavePreview(path string, g *relief.Grid) (string, error) {
	img, err := Preview(g)
	if err != nil {
		return "", err
	}

	if ext := filepath.Ext(path); !strings.EqualFold(ext, ".png") {
		path = strings.TrimSuffix(path, ext) + ".png"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create preview directory: %w", err)
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return "", fmt.Errorf("failed to save preview: %w", err)
	}
	return path, nil
}
