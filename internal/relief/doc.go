// Package relief holds the types shared by every stage of the image-to-SCAD
// conversion: the row-major Grid used for depth and height fields, the
// conversion Config, and the error taxonomy.
//
// # Units
//
// All physical quantities are millimetres. Grid coordinates are 0-based with
// row 0 at the top of the source image and column 0 at its left edge.
//
// # Error Handling
//
// Failures are reported as *StageError values that unwrap to one of three
// sentinel kinds, so callers can classify them with errors.Is:
//   - ErrConfiguration: a parameter outside its documented range
//   - ErrDegenerateInput: a field too small (or non-finite) to convert
//   - ErrGeometryInvariant: an internal consistency check failed
//
// None of these are recoverable; a run that hits one is aborted.
package relief
