// Package server implements the MCP (Model Context Protocol) server for relief conversion.
//
// This package provides a JSON-RPC 2.0 server that exposes the image to OpenSCAD
// relief pipeline through the MCP protocol, so an assistant can turn an image
// into a printable parametric model and inspect its depth field first.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Conversion:
//   - relief_convert: Image to watertight relief solid to .scad (and optionally .stl)
//
// Depth Inspection:
//   - relief_depth_stats: Image metadata and raw depth statistics
//   - relief_depth_preview: Save the depth field as a 16-bit grayscale PNG
//
// Renderer:
//   - relief_renderer_info: OpenSCAD availability and version
//
// Tool arguments use the same keys as a configuration file (base_thickness,
// max_height, estimator, ...). openscad_path is fixed when the server starts.
//
// # Image Caching
//
// Loaded images are cached by path for the lifetime of the server process.
// Every conversion gets its own run ID and working state.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, naming the failing stage
//
// # Usage
//
//	srv := server.New(server.Options{Version: version})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
