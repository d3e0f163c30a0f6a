package scad

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/image-to-scad/internal/mesh"
	"github.com/ironsheep/image-to-scad/internal/relief"
)

const stage = "scad"

// Fixed decimal places for numeric literals.
const (
	ParameterPrecision = 2
	PointPrecision     = 6
)

// pointTolerance is how far a vertex may sit outside its expected range
// (after dividing out the parameters) before emission fails.
const pointTolerance = 1e-9

// Metadata carries provenance for the header comments. It never affects the
// parameter or geometry sections.
type Metadata struct {
	// Tool names the generator, e.g. "image-to-scad 0.1.0".
	Tool string

	// Source is the input the model was made from, usually a file name.
	Source string

	// GeneratedAt is printed in UTC, RFC 3339. Zero omits the line.
	GeneratedAt time.Time

	// RunID identifies the conversion run. Empty omits the line.
	RunID string
}

// Parameter is one named scalar declaration.
type Parameter struct {
	Name    string
	Value   string // formatted literal
	Unit    string
	Purpose string
}

// Parameters builds the declarations for a solid and its config, in the
// order they are emitted.
func Parameters(m *mesh.Solid, cfg relief.Config) []Parameter {
	return []Parameter{
		{"base_thickness", formatFixed(cfg.BaseThickness, ParameterPrecision), "mm", "minimum plate thickness beneath the relief"},
		{"max_height", formatFixed(cfg.MaxHeight, ParameterPrecision), "mm", "relief height above the base"},
		{"model_width", formatFixed(cfg.ModelWidth, ParameterPrecision), "mm", "overall size along X"},
		{"model_height", formatFixed(m.Length, ParameterPrecision), "mm", "overall size along Y, from the image aspect ratio"},
		{"detail_level", formatFixed(cfg.DetailLevel, ParameterPrecision), "x", "grid density used when sampling the depth map"},
		{"smoothing_enabled", strconv.FormatBool(cfg.SmoothingEnabled), "bool", "Gaussian smoothing applied to the depth map"},
		{"smoothing_strength", formatFixed(cfg.SmoothingStrength, ParameterPrecision), "cells", "smoothing sigma in grid cells"},
		{"invert_depth", strconv.FormatBool(cfg.InvertDepth), "bool", "foreground and background swapped"},
	}
}

// Emit renders the solid as an OpenSCAD document.
//
// Parameters:
//   - m: A verified solid from mesh.Build.
//   - cfg: The config the solid was built with. cfg.ModelWidth must match the
//     solid's width.
//   - meta: Provenance for the header comments only.
//
// Returns:
//   - string: The complete document.
//   - error: ErrConfiguration for an invalid or mismatched config,
//     ErrGeometryInvariant if a vertex cannot be expressed relative to the
//     parameters (a height outside [base, base+max] that is not on the bed).
func Emit(m *mesh.Solid, cfg relief.Config, meta Metadata) (string, error) {
	var b strings.Builder
	if err := EmitTo(&b, m, cfg, meta); err != nil {
		return "", err
	}
	return b.String(), nil
}

// EmitTo is Emit writing straight to w.
func EmitTo(w io.Writer, m *mesh.Solid, cfg relief.Config, meta Metadata) error {
	if m == nil {
		return relief.DegenerateError(stage, "solid is nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if m.Width != cfg.ModelWidth {
		return relief.ConfigError(stage, "solid width %v does not match model width %v", m.Width, cfg.ModelWidth)
	}

	points, err := encodePoints(m, cfg)
	if err != nil {
		return err
	}

	ew := &errWriter{w: w}
	writeHeader(ew, m, cfg, meta)
	writeParameters(ew, Parameters(m, cfg))
	writeGeometry(ew, m, points)
	if ew.err != nil {
		return fmt.Errorf("failed to write document: %w", ew.err)
	}
	return nil
}

func writeHeader(w *errWriter, m *mesh.Solid, cfg relief.Config, meta Metadata) {
	tool := meta.Tool
	if tool == "" {
		tool = "image-to-scad"
	}
	w.printf("// Relief model generated by %s\n", tool)
	if meta.Source != "" {
		w.printf("// Source: %s\n", oneLine(meta.Source))
	}
	if !meta.GeneratedAt.IsZero() {
		w.printf("// Generated: %s\n", meta.GeneratedAt.UTC().Format(time.RFC3339))
	}
	if meta.RunID != "" {
		w.printf("// Run: %s\n", oneLine(meta.RunID))
	}
	w.printf("//\n")
	w.printf("// Dimensions: %s x %s mm, %s mm tall\n",
		formatFixed(m.Width, ParameterPrecision),
		formatFixed(m.Length, ParameterPrecision),
		formatFixed(cfg.TopHeight(), ParameterPrecision))
	w.printf("// Grid: %d x %d points (columns x rows), %d vertices, %d faces\n",
		m.Cols, m.Rows, len(m.Vertices), len(m.Faces))
	w.printf("//\n")
	w.printf("// The geometry below is expressed relative to the parameters, so\n")
	w.printf("// editing them rescales the model.\n")
	w.printf("\n")
}

func writeParameters(w *errWriter, params []Parameter) {
	w.printf("// Parameters\n")
	for _, p := range params {
		w.printf("%s = %s; // %s: %s\n", p.Name, p.Value, p.Unit, p.Purpose)
	}
	w.printf("\n")
}

func writeGeometry(w *errWriter, m *mesh.Solid, points [][4]string) {
	w.printf("// Geometry\n")
	w.printf("// Each point is [u, v, s, r]: x = u * model_width, y = v * model_height,\n")
	w.printf("// z = s * (base_thickness + r * max_height).\n")
	w.printf("relief_points = [\n")
	for i, p := range points {
		w.printf("  [%s, %s, %s, %s]%s\n", p[0], p[1], p[2], p[3], listSep(i, len(points)))
	}
	w.printf("];\n\n")

	// OpenSCAD wants faces clockwise seen from outside; the mesh stores them
	// counter-clockwise, so each face is written reversed.
	w.printf("// Point indices per face, clockwise as seen from outside.\n")
	w.printf("relief_faces = [\n")
	for i, f := range m.Faces {
		idx := make([]string, len(f))
		idx[0] = strconv.Itoa(f[0])
		for k := 1; k < len(f); k++ {
			idx[k] = strconv.Itoa(f[len(f)-k])
		}
		w.printf("  [%s]%s\n", strings.Join(idx, ", "), listSep(i, len(m.Faces)))
	}
	w.printf("];\n\n")

	w.printf("function relief_point(p) = [p[0] * model_width, p[1] * model_height, p[2] * (base_thickness + p[3] * max_height)];\n\n")
	w.printf("module relief() {\n")
	w.printf("  polyhedron(points = [for (p = relief_points) relief_point(p)], faces = relief_faces, convexity = 10);\n")
	w.printf("}\n\n")
	w.printf("relief();\n")
}

// encodePoints expresses every vertex as [u, v, s, r] fractions of the
// parameters, already formatted.
func encodePoints(m *mesh.Solid, cfg relief.Config) ([][4]string, error) {
	if !(m.Length > 0) {
		return nil, relief.DegenerateError(stage, "solid has non-positive length %v", m.Length)
	}
	out := make([][4]string, len(m.Vertices))
	for i, v := range m.Vertices {
		u, err := fraction(v.X/m.Width, "x", i, v.X)
		if err != nil {
			return nil, err
		}
		vv, err := fraction(v.Y/m.Length, "y", i, v.Y)
		if err != nil {
			return nil, err
		}
		s, r := "0", formatFixed(0, PointPrecision)
		if v.Z != 0 {
			rel, err := fraction((v.Z-cfg.BaseThickness)/cfg.MaxHeight, "z", i, v.Z)
			if err != nil {
				return nil, err
			}
			s, r = "1", rel
		}
		out[i] = [4]string{u, vv, s, r}
	}
	return out, nil
}

// fraction formats f, which must lie in [0,1] up to pointTolerance.
func fraction(f float64, axis string, vertex int, raw float64) (string, error) {
	if math.IsNaN(f) || f < -pointTolerance || f > 1+pointTolerance {
		return "", relief.InvariantError(stage, "vertex %d: %s = %v lies outside the parameter range", vertex, axis, raw)
	}
	return formatFixed(math.Min(math.Max(f, 0), 1), PointPrecision), nil
}

// formatFixed formats v with exactly prec decimals, never as "-0.00".
func formatFixed(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.HasPrefix(s, "-") && strings.Trim(s, "-0.") == "" {
		return s[1:]
	}
	return s
}

func listSep(i, n int) string {
	if i == n-1 {
		return ""
	}
	return ","
}

// oneLine keeps header values from breaking out of their comment line.
func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// errWriter remembers the first write error so callers check once at the end.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
