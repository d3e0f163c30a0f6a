package mesh

import (
	"slices"

	"github.com/ironsheep/image-to-scad/internal/relief"
)

// Verify checks that the solid is a closed, consistently wound manifold.
//
// The checks, in order:
//  1. every face has at least 3 distinct, in-range vertex indices
//  2. no two faces use the same vertex set (coincident faces)
//  3. no directed edge appears twice (two faces wound the same way)
//  4. every directed edge (a,b) has its reverse (b,a) in another face
//  5. every vertex is referenced and V - E + F == 2 (a single closed shell)
//  6. the signed volume is positive (faces wound outward, not inward)
//
// The first failure is returned as a relief.StageError of kind
// ErrGeometryInvariant.
func (s *Solid) Verify() error {
	if len(s.Vertices) == 0 || len(s.Faces) == 0 {
		return relief.InvariantError(stage, "empty mesh: %d vertices, %d faces", len(s.Vertices), len(s.Faces))
	}

	used := make([]bool, len(s.Vertices))
	tris := make([][3]int, 0, len(s.Faces))
	var polys [][]int
	edges := make([]uint64, 0, 3*len(s.Faces))

	for fi, f := range s.Faces {
		if len(f) < 3 {
			return relief.InvariantError(stage, "face %d has %d vertices, need at least 3", fi, len(f))
		}
		for k, idx := range f {
			if idx < 0 || idx >= len(s.Vertices) {
				return relief.InvariantError(stage, "face %d references vertex %d, have %d", fi, idx, len(s.Vertices))
			}
			used[idx] = true
			edges = append(edges, edgeKey(idx, f[(k+1)%len(f)]))
		}

		var key []int
		if len(f) == 3 {
			tris = append(tris, [3]int{f[0], f[1], f[2]})
			key = tris[len(tris)-1][:]
		} else {
			polys = append(polys, slices.Clone(f))
			key = polys[len(polys)-1]
		}
		slices.Sort(key)
		for k := 1; k < len(key); k++ {
			if key[k] == key[k-1] {
				return relief.InvariantError(stage, "face %d repeats vertex %d", fi, key[k])
			}
		}
	}

	slices.SortFunc(tris, func(a, b [3]int) int { return slices.Compare(a[:], b[:]) })
	for k := 1; k < len(tris); k++ {
		if tris[k] == tris[k-1] {
			return relief.InvariantError(stage, "coincident faces on vertices %v", tris[k])
		}
	}
	slices.SortFunc(polys, func(a, b []int) int { return slices.Compare(a, b) })
	for k := 1; k < len(polys); k++ {
		if slices.Equal(polys[k], polys[k-1]) {
			return relief.InvariantError(stage, "coincident faces on vertices %v", polys[k])
		}
	}

	slices.Sort(edges)
	for k := 1; k < len(edges); k++ {
		if edges[k] == edges[k-1] {
			a, b := splitEdge(edges[k])
			return relief.InvariantError(stage, "directed edge %d->%d appears in more than one face", a, b)
		}
	}
	for _, e := range edges {
		a, b := splitEdge(e)
		if _, ok := slices.BinarySearch(edges, edgeKey(b, a)); !ok {
			return relief.InvariantError(stage, "edge %d->%d has no opposite edge (open boundary)", a, b)
		}
	}

	for idx, ok := range used {
		if !ok {
			return relief.InvariantError(stage, "vertex %d is not referenced by any face", idx)
		}
	}

	euler := len(s.Vertices) - len(edges)/2 + len(s.Faces)
	if euler != 2 {
		return relief.InvariantError(stage, "Euler characteristic is %d, want 2 (V=%d E=%d F=%d)",
			euler, len(s.Vertices), len(edges)/2, len(s.Faces))
	}

	if vol := s.Volume(); !(vol > 0) {
		return relief.InvariantError(stage, "signed volume %v is not positive (faces wound inward)", vol)
	}
	return nil
}

// BoundaryEdges counts directed edges whose reverse does not appear in any
// face. A watertight solid has none.
func (s *Solid) BoundaryEdges() int {
	seen := make(map[uint64]int, 3*len(s.Faces))
	for _, f := range s.Faces {
		for k, idx := range f {
			seen[edgeKey(idx, f[(k+1)%len(f)])]++
		}
	}
	open := 0
	for e, n := range seen {
		a, b := splitEdge(e)
		if seen[edgeKey(b, a)] != n {
			open += n
		}
	}
	return open
}

func edgeKey(a, b int) uint64 {
	return uint64(uint32(a))<<32 | uint64(uint32(b))
}

func splitEdge(e uint64) (int, int) {
	return int(e >> 32), int(uint32(e))
}
