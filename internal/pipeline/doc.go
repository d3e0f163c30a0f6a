// Package pipeline runs a complete image-to-OpenSCAD conversion.
//
// A Converter sequences the stages
//
//	load image -> estimate depth -> process heights -> build mesh ->
//	emit document -> save -> render STL (optional)
//
// reporting progress before and after each one. Cancellation is checked
// between stages only; a stage that has started runs to completion.
//
// Each call is an independent run with its own run ID. The only state a
// Converter keeps across runs is its image cache, which holds decoded
// inputs and never derived data.
package pipeline
