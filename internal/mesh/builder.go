package mesh

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/ironsheep/image-to-scad/internal/heightfield"
	"github.com/ironsheep/image-to-scad/internal/relief"
)

const stage = "mesh"

// Build extrudes a height field into a closed solid.
//
// Parameters:
//   - hf: Heights in millimetres, at least 2x2. Every height must be positive
//     so the side walls have area.
//   - modelWidth: Physical X extent in millimetres. Must be > 0. The Y extent
//     is hf.ModelHeight(modelWidth), which follows the source aspect ratio.
//
// Returns:
//   - *Solid: A verified watertight solid with VertexCount(rows, cols)
//     vertices and FaceCount(rows, cols) faces.
//   - error: ErrConfiguration for a bad width, ErrDegenerateInput for a grid
//     that cannot form a cell, ErrGeometryInvariant if verification fails.
func Build(hf *heightfield.HeightField, modelWidth float64) (*Solid, error) {
	if !(modelWidth > 0) || math.IsInf(modelWidth, 0) {
		return nil, relief.ConfigError(stage, "model width must be positive, got %v", modelWidth)
	}
	if hf == nil {
		return nil, relief.DegenerateError(stage, "height field is nil")
	}
	if err := hf.CheckShape(stage, 2, 2); err != nil {
		return nil, err
	}
	for i, h := range hf.Values {
		if h <= 0 {
			return nil, relief.DegenerateError(stage, "height %v at row %d, column %d is not above the bed",
				h, i/hf.Cols, i%hf.Cols)
		}
	}

	rows, cols := hf.Rows, hf.Cols
	s := &Solid{
		Vertices: make([]r3.Vector, 0, VertexCount(rows, cols)),
		Faces:    make([]Face, 0, FaceCount(rows, cols)),
		Rows:     rows,
		Cols:     cols,
		Width:    modelWidth,
		Length:   hf.ModelHeight(modelWidth),
	}

	s.addVertices(hf)
	s.addTop()
	s.addBottom()
	s.addWalls()

	if err := s.Verify(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Solid) top(i, j int) int {
	return i*s.Cols + j
}

func (s *Solid) bottom(i, j int) int {
	return s.Rows*s.Cols + i*s.Cols + j
}

// addVertices appends the top layer then the bottom layer.
func (s *Solid) addVertices(hf *heightfield.HeightField) {
	for _, z := range []bool{true, false} {
		for i := 0; i < s.Rows; i++ {
			y := s.Length * float64(s.Rows-1-i) / float64(s.Rows-1)
			for j := 0; j < s.Cols; j++ {
				x := s.Width * float64(j) / float64(s.Cols-1)
				v := r3.Vector{X: x, Y: y}
				if z {
					v.Z = hf.At(i, j)
				}
				s.Vertices = append(s.Vertices, v)
			}
		}
	}
}

// addTop emits two +Z triangles per cell. With a=(i,j), b=(i,j+1),
// c=(i+1,j), d=(i+1,j+1), the quad a-c-d-b is counter-clockwise from above.
func (s *Solid) addTop() {
	for i := 0; i+1 < s.Rows; i++ {
		for j := 0; j+1 < s.Cols; j++ {
			a, b := s.top(i, j), s.top(i, j+1)
			c, d := s.top(i+1, j), s.top(i+1, j+1)
			s.Faces = append(s.Faces, Face{a, c, d}, Face{a, d, b})
		}
	}
}

// addBottom mirrors the top triangulation with reversed winding (-Z).
func (s *Solid) addBottom() {
	for i := 0; i+1 < s.Rows; i++ {
		for j := 0; j+1 < s.Cols; j++ {
			a, b := s.bottom(i, j), s.bottom(i, j+1)
			c, d := s.bottom(i+1, j), s.bottom(i+1, j+1)
			s.Faces = append(s.Faces, Face{a, d, c}, Face{a, b, d})
		}
	}
}

// addWalls walks the top boundary counter-clockwise (from above) and drops a
// two-triangle ribbon from every boundary segment to the bed.
func (s *Solid) addWalls() {
	last, lastCol := s.Rows-1, s.Cols-1

	// left edge, top to bottom of the image
	for i := 0; i < last; i++ {
		s.wall(i, 0, i+1, 0)
	}
	// front edge (last image row), left to right
	for j := 0; j < lastCol; j++ {
		s.wall(last, j, last, j+1)
	}
	// right edge, bottom to top of the image
	for i := last; i > 0; i-- {
		s.wall(i, lastCol, i-1, lastCol)
	}
	// back edge (first image row), right to left
	for j := lastCol; j > 0; j-- {
		s.wall(0, j, 0, j-1)
	}
}

// wall adds the side quad under the top boundary edge p->q, where p->q is the
// direction the edge has in its top triangle. The quad runs q, p, P, Q (P and
// Q on the bed), so it holds the reverses of both the top edge and the
// mirrored bottom edge.
func (s *Solid) wall(pi, pj, qi, qj int) {
	p, q := s.top(pi, pj), s.top(qi, qj)
	P, Q := s.bottom(pi, pj), s.bottom(qi, qj)
	s.Faces = append(s.Faces, Face{q, p, P}, Face{q, P, Q})
}
