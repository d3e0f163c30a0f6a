package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// depthSourceProperties are shared by every tool that estimates depth.
func depthSourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"image_path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the input image (.jpg, .jpeg, .png, .webp, .bmp, .tiff, .tif; 64 to 4096 px per side)",
		},
		"estimator": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"luminance", "depth-map"},
			"description": "Depth source: 'luminance' treats brighter pixels as nearer; 'depth-map' reads the image as a grayscale depth map exported by a depth model. Default 'luminance'",
			"default":     "luminance",
		},
		"denoise_radius": map[string]interface{}{
			"type":        "number",
			"description": "Gaussian pre-blur radius in pixels for the luminance source. Default 0 (off)",
			"default":     0,
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	convertProps := depthSourceProperties()
	for name, prop := range map[string]interface{}{
		"output_path": map[string]interface{}{
			"type":        "string",
			"description": "Where to save the .scad file (extension forced to .scad). Omit to get the document inline",
		},
		"base_thickness": map[string]interface{}{
			"type":        "number",
			"description": "Minimum plate thickness in mm beneath the relief. Default 2.0",
			"default":     2.0,
		},
		"max_height": map[string]interface{}{
			"type":        "number",
			"description": "Relief height in mm above the base. Default 15.0",
			"default":     15.0,
		},
		"model_width": map[string]interface{}{
			"type":        "number",
			"description": "Model width in mm; depth follows the image aspect ratio. Default 100.0",
			"default":     100.0,
		},
		"detail_level": map[string]interface{}{
			"type":        "number",
			"description": "Grid density multiplier from 0.5 (coarse) to 2.0 (fine). Default 1.0",
			"default":     1.0,
			"minimum":     0.5,
			"maximum":     2.0,
		},
		"smoothing": map[string]interface{}{
			"type":        "boolean",
			"description": "Apply Gaussian smoothing to the depth field. Default true",
			"default":     true,
		},
		"smoothing_strength": map[string]interface{}{
			"type":        "number",
			"description": "Smoothing sigma in grid cells. Default 1.0",
			"default":     1.0,
		},
		"invert_depth": map[string]interface{}{
			"type":        "boolean",
			"description": "Swap foreground and background. Default false",
			"default":     false,
		},
		"render_stl": map[string]interface{}{
			"type":        "boolean",
			"description": "Also export an STL with OpenSCAD (requires output_path and an OpenSCAD install). Default false",
			"default":     false,
		},
		"render_timeout": map[string]interface{}{
			"type":        "string",
			"description": "STL export time limit as a duration like '5m'. Default 300s",
		},
		"include_document": map[string]interface{}{
			"type":        "boolean",
			"description": "Return the OpenSCAD source even when it is saved to output_path. Default false",
			"default":     false,
		},
	} {
		convertProps[name] = prop
	}

	previewProps := depthSourceProperties()
	previewProps["output_path"] = map[string]interface{}{
		"type":        "string",
		"description": "Where to save the PNG preview. Default: <image name>_depth.png next to the image",
	}

	return []Tool{
		// Conversion
		{
			Name:        "relief_convert",
			Description: "Convert an image into a watertight relief solid and emit it as a parametric OpenSCAD document. Returns model dimensions, mesh counts, depth statistics and the saved paths.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": convertProps,
				"required":   []string{"image_path"},
			},
		},

		// Depth Inspection
		{
			Name:        "relief_depth_stats",
			Description: "Estimate the depth field of an image and report image metadata plus min, max, mean and standard deviation of the raw depth values.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": depthSourceProperties(),
				"required":   []string{"image_path"},
			},
		},
		{
			Name:        "relief_depth_preview",
			Description: "Estimate the depth field of an image and save it as a 16-bit grayscale PNG (white = near) for inspection before converting.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": previewProps,
				"required":   []string{"image_path"},
			},
		},

		// Renderer
		{
			Name:        "relief_renderer_info",
			Description: "Report whether OpenSCAD is available for STL export, where it was found and its version.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
