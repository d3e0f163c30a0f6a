package mesh

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/ironsheep/image-to-scad/internal/heightfield"
	"github.com/ironsheep/image-to-scad/internal/relief"
)

// heightField wraps literal rows as a HeightField in [2, 17].
func heightField(t *testing.T, rows [][]float64) *heightfield.HeightField {
	t.Helper()
	g, err := relief.GridFromRows(rows)
	if err != nil {
		t.Fatalf("GridFromRows failed: %v", err)
	}
	return &heightfield.HeightField{Grid: *g, Base: 2, Top: 17}
}

// randomHeightField fills a rows x cols field with heights in [2, 17].
func randomHeightField(rows, cols int, seed int64) *heightfield.HeightField {
	r := rand.New(rand.NewSource(seed))
	hf := &heightfield.HeightField{Grid: *relief.NewGrid(rows, cols), Base: 2, Top: 17}
	for i := range hf.Values {
		hf.Values[i] = 2 + 15*r.Float64()
	}
	return hf
}

func TestBuild_WatertightForManyShapes(t *testing.T) {
	shapes := [][2]int{{2, 2}, {2, 5}, {5, 2}, {3, 3}, {4, 7}, {11, 6}, {16, 16}}

	for i, shape := range shapes {
		rows, cols := shape[0], shape[1]
		t.Run(fmt.Sprintf("%dx%d", rows, cols), func(t *testing.T) {
			s, err := Build(randomHeightField(rows, cols, int64(i)), 100)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if len(s.Vertices) != VertexCount(rows, cols) {
				t.Errorf("vertices: got %d, want %d", len(s.Vertices), VertexCount(rows, cols))
			}
			if len(s.Faces) != FaceCount(rows, cols) {
				t.Errorf("faces: got %d, want %d", len(s.Faces), FaceCount(rows, cols))
			}
			if n := s.BoundaryEdges(); n != 0 {
				t.Errorf("boundary edges: got %d, want 0", n)
			}
			if err := s.Verify(); err != nil {
				t.Errorf("Verify failed: %v", err)
			}
			if s.Volume() <= 0 {
				t.Errorf("volume should be positive, got %v", s.Volume())
			}
		})
	}
}

func TestBuild_FlatPlate(t *testing.T) {
	rows := make([][]float64, 4)
	for i := range rows {
		rows[i] = []float64{9.5, 9.5, 9.5, 9.5}
	}

	s, err := Build(heightField(t, rows), 100)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for idx := 0; idx < 16; idx++ {
		if z := s.Vertices[idx].Z; z != 9.5 {
			t.Errorf("top vertex %d: z = %v, want 9.5", idx, z)
		}
	}
	for idx := 16; idx < 32; idx++ {
		if z := s.Vertices[idx].Z; z != 0 {
			t.Errorf("bottom vertex %d: z = %v, want 0", idx, z)
		}
	}
	// 100 x 100 x 9.5 box
	if math.Abs(s.Volume()-95000) > 1e-6 {
		t.Errorf("volume: got %v, want 95000", s.Volume())
	}
}

func TestBuild_TopVertexHeights(t *testing.T) {
	s, err := Build(heightField(t, [][]float64{{2, 17}, {17, 2}}), 100)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := []float64{2, 17, 17, 2}
	for idx, z := range want {
		if s.Vertices[idx].Z != z {
			t.Errorf("top vertex %d: z = %v, want %v", idx, s.Vertices[idx].Z, z)
		}
	}
}

func TestBuild_Placement(t *testing.T) {
	// 3 rows x 4 cols at width 100 => length 75
	s, err := Build(randomHeightField(3, 4, 9), 100)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if s.Width != 100 || s.Length != 75 {
		t.Errorf("extent: got %vx%v, want 100x75", s.Width, s.Length)
	}

	min, max := s.Bounds()
	if min.X != 0 || min.Y != 0 || min.Z != 0 {
		t.Errorf("min bound: got %v, want origin", min)
	}
	if max.X != 100 || max.Y != 75 {
		t.Errorf("max bound: got %v, want x=100 y=75", max)
	}

	// Image row 0 is the far edge, column 0 the left edge.
	if v := s.Vertices[0]; v.X != 0 || v.Y != 75 {
		t.Errorf("vertex (0,0): got %v, want x=0 y=75", v)
	}
	if v := s.Vertices[11]; v.X != 100 || v.Y != 0 {
		t.Errorf("vertex (2,3): got %v, want x=100 y=0", v)
	}
}

func TestBuild_LengthFollowsSourceAspect(t *testing.T) {
	// A 3x4 source resampled to 3x5 still describes a 4:3 plate.
	hf := randomHeightField(3, 5, 4)
	hf.Aspect = 0.75

	s, err := Build(hf, 100)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.Length != 75 {
		t.Errorf("length: got %v, want 75", s.Length)
	}
	if _, max := s.Bounds(); max.Y != 75 {
		t.Errorf("max y: got %v, want 75", max.Y)
	}
	if n := s.BoundaryEdges(); n != 0 {
		t.Errorf("boundary edges: got %d, want 0", n)
	}
}

func TestBuild_FaceOrientation(t *testing.T) {
	s, err := Build(randomHeightField(5, 6, 3), 60)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	cells := (s.Rows - 1) * (s.Cols - 1)
	center := r3.Vector{X: s.Width / 2, Y: s.Length / 2}

	for fi, f := range s.Faces {
		n := s.Normal(f)
		switch {
		case fi < 2*cells:
			if n.Z <= 0 {
				t.Errorf("top face %d: normal %v should point up", fi, n)
			}
		case fi < 4*cells:
			if n.Z >= 0 {
				t.Errorf("bottom face %d: normal %v should point down", fi, n)
			}
		default:
			if math.Abs(n.Z) > 1e-9 {
				t.Errorf("wall face %d: normal %v should be horizontal", fi, n)
			}
			var centroid r3.Vector
			for _, idx := range f {
				centroid = centroid.Add(s.Vertices[idx])
			}
			centroid = centroid.Mul(1 / float64(len(f)))
			out := centroid.Sub(center)
			out.Z = 0
			if n.Dot(out) <= 0 {
				t.Errorf("wall face %d: normal %v points inward", fi, n)
			}
		}
	}
}

func TestBuild_Errors(t *testing.T) {
	zero := randomHeightField(3, 3, 1)
	zero.Set(1, 1, 0)

	tests := []struct {
		name  string
		hf    *heightfield.HeightField
		width float64
		kind  error
	}{
		{"single row", randomHeightField(1, 5, 1), 100, relief.ErrDegenerateInput},
		{"single column", randomHeightField(5, 1, 1), 100, relief.ErrDegenerateInput},
		{"nil field", nil, 100, relief.ErrDegenerateInput},
		{"height on the bed", zero, 100, relief.ErrDegenerateInput},
		{"zero width", randomHeightField(3, 3, 1), 0, relief.ErrConfiguration},
		{"negative width", randomHeightField(3, 3, 1), -10, relief.ErrConfiguration},
		{"NaN width", randomHeightField(3, 3, 1), math.NaN(), relief.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.hf, tt.width)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("error kind: got %v, want %v", err, tt.kind)
			}
		})
	}
}

func TestBuild_DetailLevelsStayWatertight(t *testing.T) {
	depth := relief.NewGrid(24, 48)
	r := rand.New(rand.NewSource(5))
	for i := range depth.Values {
		depth.Values[i] = r.Float64()
	}

	counts := map[float64]int{}
	for _, detail := range []float64{0.5, 2.0} {
		cfg := relief.DefaultConfig()
		cfg.DetailLevel = detail
		hf, err := heightfield.Process(depth, cfg)
		if err != nil {
			t.Fatalf("Process(detail=%v) failed: %v", detail, err)
		}
		s, err := Build(hf, cfg.ModelWidth)
		if err != nil {
			t.Fatalf("Build(detail=%v) failed: %v", detail, err)
		}
		if s.BoundaryEdges() != 0 {
			t.Errorf("detail %v: mesh has open edges", detail)
		}
		counts[detail] = s.Rows * s.Cols
	}

	if counts[2.0] != 4*counts[0.5] {
		t.Errorf("grid points: detail 2.0 has %d, detail 0.5 has %d, want ratio 4", counts[2.0], counts[0.5])
	}
}

func TestBuild_Deterministic(t *testing.T) {
	hf := randomHeightField(6, 9, 12)

	a, err := Build(hf, 80)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	b, err := Build(hf, 80)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for i := range a.Vertices {
		if a.Vertices[i] != b.Vertices[i] {
			t.Fatalf("vertex %d differs between runs", i)
		}
	}
	for i := range a.Faces {
		if fmt.Sprint(a.Faces[i]) != fmt.Sprint(b.Faces[i]) {
			t.Fatalf("face %d differs between runs", i)
		}
	}
}
