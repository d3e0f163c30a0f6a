// Package mesh extrudes a height field into a closed, manifold solid.
//
// # Layout
//
// A grid of R rows and C columns produces 2*R*C vertices: the top surface
// (row-major, index i*C+j) followed by a bottom copy at z = 0 (index
// R*C + i*C+j). Faces are triangles:
//   - top: two per grid cell, split along the (i,j)-(i+1,j+1) diagonal
//   - bottom: the mirrored triangulation of the top
//   - walls: two per boundary segment on each of the four sides
//
// # Coordinate System
//
// X grows with the column index across [0, width]. Y runs across
// [0, length] with image row 0 at the far (+Y) edge, so the relief reads
// upright when viewed from above. Z is height in millimetres.
//
// # Winding
//
// Every face lists its vertices counter-clockwise as seen from outside the
// solid, so face normals point outward. Build runs Verify before returning;
// a solid that fails any closure check is never handed to a caller.
package mesh
