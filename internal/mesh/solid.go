package mesh

import (
	"math"

	"github.com/golang/geo/r3"
)

// Face is an ordered list of vertex indices, counter-clockwise seen from outside.
type Face []int

// Solid is a closed polygon mesh stored as a vertex arena plus index faces.
type Solid struct {
	// Vertices holds positions in millimetres.
	Vertices []r3.Vector

	// Faces index into Vertices.
	Faces []Face

	// Rows and Cols record the grid the solid was built from.
	Rows int
	Cols int

	// Width is the X extent and Length the Y extent, both in millimetres.
	Width  float64
	Length float64
}

// VertexCount returns the number of vertices a grid of the given size produces.
func VertexCount(rows, cols int) int {
	return 2 * rows * cols
}

// FaceCount returns the number of faces a grid of the given size produces.
func FaceCount(rows, cols int) int {
	cells := (rows - 1) * (cols - 1)
	return 4*cells + 4*(cols-1) + 4*(rows-1)
}

// Normal returns the (unnormalized) normal of face f computed with Newell's
// method. Its direction follows the face winding.
func (s *Solid) Normal(f Face) r3.Vector {
	var n r3.Vector
	for k := range f {
		cur := s.Vertices[f[k]]
		next := s.Vertices[f[(k+1)%len(f)]]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n
}

// Volume returns the signed volume enclosed by the mesh. It is positive when
// the faces are wound outward.
func (s *Solid) Volume() float64 {
	var vol float64
	for _, f := range s.Faces {
		if len(f) < 3 {
			continue
		}
		v0 := s.Vertices[f[0]]
		for k := 1; k+1 < len(f); k++ {
			v1 := s.Vertices[f[k]]
			v2 := s.Vertices[f[k+1]]
			vol += v0.Dot(v1.Cross(v2))
		}
	}
	return vol / 6
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (s *Solid) Bounds() (min, max r3.Vector) {
	if len(s.Vertices) == 0 {
		return r3.Vector{}, r3.Vector{}
	}
	inf := math.Inf(1)
	min = r3.Vector{X: inf, Y: inf, Z: inf}
	max = r3.Vector{X: -inf, Y: -inf, Z: -inf}
	for _, v := range s.Vertices {
		min = r3.Vector{X: math.Min(min.X, v.X), Y: math.Min(min.Y, v.Y), Z: math.Min(min.Z, v.Z)}
		max = r3.Vector{X: math.Max(max.X, v.X), Y: math.Max(max.Y, v.Y), Z: math.Max(max.Z, v.Z)}
	}
	return min, max
}
