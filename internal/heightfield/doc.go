// Package heightfield turns a raw, model-scaled depth field into a bounded
// physical height field.
//
// # Processing Order
//
// Process applies the following steps, each of which is also exported on its own:
//
//  1. Normalize: min-max scale to [0,1]; a uniform field maps to 0.5
//  2. Invert (optional): v -> 1 - v
//  3. Smooth (optional): separable Gaussian, clamped edges
//  4. Resample: Catmull-Rom to a size derived from the detail level
//  5. MapHeights: base + v*maxHeight, in millimetres
//
// Every value of the returned HeightField lies in
// [BaseThickness, BaseThickness+MaxHeight].
//
// # Thread Safety
//
// All functions are pure: inputs are never modified and no state is kept
// between calls. Smooth splits its rows across goroutines internally; the
// result does not depend on how many run.
package heightfield
