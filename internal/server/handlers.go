package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/image-to-scad/internal/config"
	"github.com/ironsheep/image-to-scad/internal/heightfield"
	"github.com/ironsheep/image-to-scad/internal/imaging"
	"github.com/ironsheep/image-to-scad/internal/pipeline"
	"github.com/ironsheep/image-to-scad/internal/relief"
	"github.com/ironsheep/image-to-scad/internal/render"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "relief_convert").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Conversion
	case "relief_convert":
		return s.handleReliefConvert(ctx, args)

	// Depth Inspection
	case "relief_depth_stats":
		return s.handleReliefDepthStats(ctx, args)
	case "relief_depth_preview":
		return s.handleReliefDepthPreview(ctx, args)

	// Renderer
	case "relief_renderer_info":
		return s.handleReliefRendererInfo(ctx)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, treating empty input as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// depthSourceArgs are shared by every tool that estimates depth. The
// embedded override set uses the same keys as a config file.
type depthSourceArgs struct {
	ImagePath string `json:"image_path"`
	config.File
}

func (a *depthSourceArgs) validate() error {
	if a.ImagePath == "" {
		return fmt.Errorf("image_path is required")
	}
	if a.OpenSCADPath != nil {
		return fmt.Errorf("openscad_path can only be set when the server starts")
	}
	return a.File.Validate()
}

// converter builds a pipeline for one call, sharing the server's image
// cache.
func (s *Server) converter(a *depthSourceArgs) (*pipeline.Converter, error) {
	est, err := imaging.NewEstimator(a.GetEstimator(), a.GetDenoiseRadius())
	if err != nil {
		return nil, err
	}
	renderer := *s.renderer
	if a.RenderTimeout != nil {
		renderer.Timeout = a.GetRenderTimeout()
	}
	return pipeline.New(pipeline.Options{
		Estimator: est,
		Cache:     s.cache,
		Renderer:  &renderer,
		Logger:    s.logger,
		Tool:      "image-to-scad " + s.version,
	}), nil
}

// === Conversion Handlers ===

type reliefConvertArgs struct {
	depthSourceArgs
	OutputPath      string `json:"output_path"`
	RenderSTL       bool   `json:"render_stl"`
	IncludeDocument bool   `json:"include_document"`
}

// ReliefConvertResult summarizes a conversion.
type ReliefConvertResult struct {
	RunID       string            `json:"run_id"`
	ScadPath    string            `json:"scad_path,omitempty"`
	STLPath     string            `json:"stl_path,omitempty"`
	ModelWidth  float64           `json:"model_width_mm"`
	ModelHeight float64           `json:"model_height_mm"`
	TotalHeight float64           `json:"total_height_mm"`
	GridRows    int               `json:"grid_rows"`
	GridCols    int               `json:"grid_cols"`
	Vertices    int               `json:"vertices"`
	Faces       int               `json:"faces"`
	DepthStats  heightfield.Stats `json:"depth_stats"`
	HeightStats heightfield.Stats `json:"height_stats"`
	DurationMS  int64             `json:"duration_ms"`
	Document    string            `json:"document,omitempty"`
}

func (s *Server) handleReliefConvert(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a reliefConvertArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}

	cfg := relief.DefaultConfig()
	a.Apply(&cfg)

	conv, err := s.converter(&a.depthSourceArgs)
	if err != nil {
		return nil, err
	}
	res, err := conv.ConvertFile(ctx, a.ImagePath, pipeline.Request{
		Config:     cfg,
		OutputPath: a.OutputPath,
		RenderSTL:  a.RenderSTL,
	})
	if err != nil {
		return nil, err
	}

	out := &ReliefConvertResult{
		RunID:       res.RunID,
		ScadPath:    res.ScadPath,
		STLPath:     res.STLPath,
		ModelWidth:  res.Solid.Width,
		ModelHeight: res.Solid.Length,
		TotalHeight: cfg.TopHeight(),
		GridRows:    res.Solid.Rows,
		GridCols:    res.Solid.Cols,
		Vertices:    len(res.Solid.Vertices),
		Faces:       len(res.Solid.Faces),
		DepthStats:  res.DepthStats,
		HeightStats: res.HeightStats,
		DurationMS:  res.Duration.Milliseconds(),
	}
	if a.IncludeDocument || res.ScadPath == "" {
		out.Document = res.Document
	}
	return out, nil
}

// === Depth Inspection Handlers ===

// DepthStatsResult describes an image and its raw depth field.
type DepthStatsResult struct {
	Image     *imaging.ImageInfo `json:"image"`
	Estimator string             `json:"estimator"`
	Depth     heightfield.Stats  `json:"depth"`
}

func (s *Server) handleReliefDepthStats(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a depthSourceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}

	info, err := imaging.LoadImageInfo(s.cache, a.ImagePath)
	if err != nil {
		return nil, err
	}
	conv, err := s.converter(&a)
	if err != nil {
		return nil, err
	}
	depth, err := conv.EstimateDepth(ctx, a.ImagePath)
	if err != nil {
		return nil, err
	}

	return &DepthStatsResult{
		Image:     info,
		Estimator: a.GetEstimator(),
		Depth:     heightfield.Analyze(depth),
	}, nil
}

type reliefDepthPreviewArgs struct {
	depthSourceArgs
	OutputPath string `json:"output_path"`
}

// DepthPreviewResult points at a saved depth preview.
type DepthPreviewResult struct {
	PreviewPath string            `json:"preview_path"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Depth       heightfield.Stats `json:"depth"`
}

func (s *Server) handleReliefDepthPreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a reliefDepthPreviewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}

	conv, err := s.converter(&a.depthSourceArgs)
	if err != nil {
		return nil, err
	}
	depth, err := conv.EstimateDepth(ctx, a.ImagePath)
	if err != nil {
		return nil, err
	}

	out := a.OutputPath
	if out == "" {
		out = pipeline.OutputPathFor(a.ImagePath, "", "_depth.png")
	}
	path, err := imaging.SavePreview(out, depth)
	if err != nil {
		return nil, err
	}

	return &DepthPreviewResult{
		PreviewPath: path,
		Width:       depth.Cols,
		Height:      depth.Rows,
		Depth:       heightfield.Analyze(depth),
	}, nil
}

// === Renderer Handlers ===

// RendererInfoResult reports OpenSCAD availability.
type RendererInfoResult struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Timeout   string `json:"timeout"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleReliefRendererInfo(ctx context.Context) (interface{}, error) {
	out := &RendererInfoResult{Timeout: s.renderer.Timeout.String()}
	if s.renderer.Timeout <= 0 {
		out.Timeout = render.DefaultTimeout.String()
	}

	path, err := s.renderer.Executable()
	if err != nil {
		out.Error = err.Error()
		return out, nil
	}
	out.Available = true
	out.Path = path

	v, err := s.renderer.Version(ctx)
	if err != nil {
		out.Error = err.Error()
		return out, nil
	}
	out.Version = v
	return out, nil
}
