// Package render drives the OpenSCAD command line to turn a .scad document
// into an STL mesh.
//
// # Prerequisites
//
// OpenSCAD must be installed for rendering; everything else in the module
// works without it. The executable is looked up in this order:
//   - an explicit path, when configured
//   - "openscad" or "OpenSCAD" on PATH
//   - common install locations for Linux, macOS and Windows
//
// Rendering runs under a context deadline (DefaultTimeout unless set).
// Failures wrap ErrRender and include OpenSCAD's own output.
package render
