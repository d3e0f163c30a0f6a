package relief

import "math"

// Valid range for Config.DetailLevel.
const (
	MinDetailLevel = 0.5
	MaxDetailLevel = 2.0
)

// StyleRelief is the only supported output style: a height-field plate.
const StyleRelief = "relief"

// Config holds the user-tunable conversion parameters.
//
// Lengths are in millimetres. The zero value is not valid; start from
// DefaultConfig and override fields as needed.
type Config struct {
	// BaseThickness is the minimum plate thickness beneath the relief. Must be > 0.
	BaseThickness float64 `json:"base_thickness"`

	// MaxHeight is the relief height above the base. Must be > 0.
	MaxHeight float64 `json:"max_height"`

	// ModelWidth is the physical X extent of the model. Must be > 0.
	// The Y extent follows from the grid aspect ratio (see ModelHeight).
	ModelWidth float64 `json:"model_width"`

	// DetailLevel scales the number of grid points: 0.5 is coarse, 2.0 fine.
	DetailLevel float64 `json:"detail_level"`

	// SmoothingEnabled turns the Gaussian smoothing pass on.
	SmoothingEnabled bool `json:"smoothing"`

	// SmoothingStrength is the Gaussian sigma in grid cells. 0 disables smoothing.
	SmoothingStrength float64 `json:"smoothing_strength"`

	// InvertDepth swaps foreground and background.
	InvertDepth bool `json:"invert_depth"`

	// OutputStyle selects the generated geometry. Only "relief" is supported.
	OutputStyle string `json:"output_style"`
}

// DefaultConfig returns the stock parameters: a 100 mm wide plate with a
// 2 mm base and up to 15 mm of relief.
func DefaultConfig() Config {
	return Config{
		BaseThickness:     2.0,
		MaxHeight:         15.0,
		ModelWidth:        100.0,
		DetailLevel:       1.0,
		SmoothingEnabled:  true,
		SmoothingStrength: 1.0,
		InvertDepth:       false,
		OutputStyle:       StyleRelief,
	}
}

// Validate checks every field against its documented range and returns a
// StageError of kind ErrConfiguration for the first violation found.
func (c Config) Validate() error {
	const stage = "config"
	if !(c.BaseThickness > 0) || math.IsInf(c.BaseThickness, 0) {
		return ConfigError(stage, "base thickness must be positive, got %v", c.BaseThickness)
	}
	if !(c.MaxHeight > 0) || math.IsInf(c.MaxHeight, 0) {
		return ConfigError(stage, "max height must be positive, got %v", c.MaxHeight)
	}
	if !(c.ModelWidth > 0) || math.IsInf(c.ModelWidth, 0) {
		return ConfigError(stage, "model width must be positive, got %v", c.ModelWidth)
	}
	if !(c.DetailLevel >= MinDetailLevel && c.DetailLevel <= MaxDetailLevel) {
		return ConfigError(stage, "detail level must be between %.1f and %.1f, got %v",
			MinDetailLevel, MaxDetailLevel, c.DetailLevel)
	}
	if !(c.SmoothingStrength >= 0) || math.IsInf(c.SmoothingStrength, 0) {
		return ConfigError(stage, "smoothing strength must not be negative, got %v", c.SmoothingStrength)
	}
	if c.OutputStyle != StyleRelief {
		return ConfigError(stage, "unsupported output style %q", c.OutputStyle)
	}
	return nil
}

// TopHeight is the highest permitted height: BaseThickness + MaxHeight.
func (c Config) TopHeight() float64 {
	return c.BaseThickness + c.MaxHeight
}

// ModelHeight derives the physical Y extent from the model width and the grid
// aspect ratio. A 4:3 (cols:rows) grid at width 100 gives 75.
func ModelHeight(width float64, rows, cols int) float64 {
	if cols <= 0 {
		return 0
	}
	return width * float64(rows) / float64(cols)
}
