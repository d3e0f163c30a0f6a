// Package scad serializes a solid relief mesh into a parametric OpenSCAD
// document.
//
// # Document Layout
//
//  1. Header comments: tool, source, generation time, run ID, dimensions
//  2. Parameters: one declaration per configuration scalar, each with a unit
//     and a short purpose comment
//  3. Geometry: points and faces of the solid, expressed relative to the
//     parameters, fed to a single polyhedron
//
// Points are written as [u, v, s, r] fractions rather than millimetres:
//
//	x = u * model_width
//	y = v * model_height
//	z = s * (base_thickness + r * max_height)
//
// so editing a parameter rescales the model without touching the data, and
// no declared value is ever repeated as a literal.
//
// # Determinism
//
// Numbers are formatted with strconv at a fixed precision (parameters 2
// decimals, point fractions 6, indices as integers), independent of locale.
// Given the same solid and config, the parameter and geometry sections are
// byte-identical; only the header reflects Metadata.
package scad
