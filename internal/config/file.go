// Package config loads optional JSON override files for a conversion.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ironsheep/image-to-scad/internal/imaging"
	"github.com/ironsheep/image-to-scad/internal/relief"
	"github.com/ironsheep/image-to-scad/internal/render"
)

// maxFileSize caps override files at 1MB.
const maxFileSize = 1 * 1024 * 1024

// File is a set of partial overrides. Nil fields keep their defaults, so
// a file only needs the keys it changes. Relief keys match relief.Config's
// JSON names.
type File struct {
	// Relief params
	BaseThickness     *float64 `json:"base_thickness,omitempty"`
	MaxHeight         *float64 `json:"max_height,omitempty"`
	ModelWidth        *float64 `json:"model_width,omitempty"`
	DetailLevel       *float64 `json:"detail_level,omitempty"`
	Smoothing         *bool    `json:"smoothing,omitempty"`
	SmoothingStrength *float64 `json:"smoothing_strength,omitempty"`
	InvertDepth       *bool    `json:"invert_depth,omitempty"`
	OutputStyle       *string  `json:"output_style,omitempty"`

	// Depth source params
	Estimator     *string  `json:"estimator,omitempty"`
	DenoiseRadius *float64 `json:"denoise_radius,omitempty"`

	// Renderer params
	OpenSCADPath  *string `json:"openscad_path,omitempty"`
	RenderTimeout *string `json:"render_timeout,omitempty"` // duration string like "5m"
}

// Load reads an override file. The path must have a .json extension and
// the file must be under 1MB. Unknown keys are rejected.
func Load(path string) (*File, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	cfg := &File{}
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the non-relief fields. Relief values are validated once
// applied, by relief.Config.Validate.
func (c *File) Validate() error {
	if _, err := imaging.NewEstimator(c.GetEstimator(), c.GetDenoiseRadius()); err != nil {
		return err
	}
	if c.RenderTimeout != nil && *c.RenderTimeout != "" {
		d, err := time.ParseDuration(*c.RenderTimeout)
		if err != nil {
			return fmt.Errorf("invalid render_timeout '%s': %w", *c.RenderTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("render_timeout must be positive, got %s", *c.RenderTimeout)
		}
	}
	return nil
}

// Apply copies every set relief field into cfg.
func (c *File) Apply(cfg *relief.Config) {
	setFloat(&cfg.BaseThickness, c.BaseThickness)
	setFloat(&cfg.MaxHeight, c.MaxHeight)
	setFloat(&cfg.ModelWidth, c.ModelWidth)
	setFloat(&cfg.DetailLevel, c.DetailLevel)
	setFloat(&cfg.SmoothingStrength, c.SmoothingStrength)
	if c.Smoothing != nil {
		cfg.SmoothingEnabled = *c.Smoothing
	}
	if c.InvertDepth != nil {
		cfg.InvertDepth = *c.InvertDepth
	}
	if c.OutputStyle != nil {
		cfg.OutputStyle = *c.OutputStyle
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// GetEstimator returns the estimator name or the default.
func (c *File) GetEstimator() string {
	if c.Estimator == nil || *c.Estimator == "" {
		return imaging.EstimatorLuminance
	}
	return *c.Estimator
}

// GetDenoiseRadius returns the denoise radius or the default (no blur).
func (c *File) GetDenoiseRadius() float64 {
	if c.DenoiseRadius == nil {
		return 0
	}
	return *c.DenoiseRadius
}

// GetOpenSCADPath returns the configured executable path, empty for lookup.
func (c *File) GetOpenSCADPath() string {
	if c.OpenSCADPath == nil {
		return ""
	}
	return *c.OpenSCADPath
}

// GetRenderTimeout parses and returns RenderTimeout, or the renderer
// default.
func (c *File) GetRenderTimeout() time.Duration {
	if c.RenderTimeout == nil || *c.RenderTimeout == "" {
		return render.DefaultTimeout
	}
	d, err := time.ParseDuration(*c.RenderTimeout)
	if err != nil || d <= 0 {
		return render.DefaultTimeout
	}
	return d
}
