package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SaveScad writes doc to path, creating parent directories. A path without
// a .scad extension gets one (replacing any other extension).
//
// Returns the path actually written.
func SaveScad(path, doc string) (string, error) {
	if ext := filepath.Ext(path); !strings.EqualFold(ext, ".scad") {
		path = strings.TrimSuffix(path, ext) + ".scad"
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("failed to write scad file: %w", err)
	}
	return path, nil
}

// OutputPathFor derives an output path from the input image: same base
// name with suffix, in outputDir or next to the input when outputDir is
// empty.
func OutputPathFor(inputPath, outputDir, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if outputDir == "" {
		outputDir = filepath.Dir(inputPath)
	}
	return filepath.Join(outputDir, base+suffix)
}
