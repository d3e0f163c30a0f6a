package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout bounds a single render.
const DefaultTimeout = 300 * time.Second

// ErrRender marks a failure to locate or run OpenSCAD.
var ErrRender = errors.New("render failed")

// executableNames are tried on PATH, in order.
var executableNames = []string{"openscad", "OpenSCAD"}

// commonPaths are checked when nothing is found on PATH.
var commonPaths = []string{
	"/usr/bin/openscad",
	"/usr/local/bin/openscad",
	"/snap/bin/openscad",
	"/opt/homebrew/bin/openscad",
	"/Applications/OpenSCAD.app/Contents/MacOS/OpenSCAD",
	`C:\Program Files\OpenSCAD\openscad.exe`,
	`C:\Program Files (x86)\OpenSCAD\openscad.exe`,
}

// Renderer runs OpenSCAD exports.
type Renderer struct {
	// Path to the executable. Empty means look it up.
	Path string

	// Timeout per render. Zero means DefaultTimeout.
	Timeout time.Duration

	// Logger receives debug output. Nil discards it.
	Logger *log.Logger

	// searchPaths overrides commonPaths; tests use it to keep the host's
	// installation out of the lookup.
	searchPaths []string
}

// New returns a Renderer for the executable at path, or for whichever
// OpenSCAD is found if path is empty.
func New(path string) *Renderer {
	return &Renderer{Path: path, Timeout: DefaultTimeout}
}

func (r *Renderer) logger() *log.Logger {
	if r.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return r.Logger
}

// Executable resolves the OpenSCAD executable.
func (r *Renderer) Executable() (string, error) {
	if r.Path != "" {
		if isExecutableFile(r.Path) {
			return r.Path, nil
		}
		return "", fmt.Errorf("%w: openscad not found at %s", ErrRender, r.Path)
	}

	for _, name := range executableNames {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}

	paths := commonPaths
	if r.searchPaths != nil {
		paths = r.searchPaths
	}
	for _, p := range paths {
		if isExecutableFile(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: openscad not found on PATH or in common install locations", ErrRender)
}

// Available reports whether an OpenSCAD executable can be found.
func (r *Renderer) Available() bool {
	_, err := r.Executable()
	return err == nil
}

// Version returns the version string OpenSCAD reports, e.g. "2021.01".
func (r *Renderer) Version(ctx context.Context) (string, error) {
	exe, err := r.Executable()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// OpenSCAD prints its version on stderr.
	cmd := exec.CommandContext(ctx, exe, "--version")
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s --version: %v", ErrRender, exe, err)
	}

	v := strings.TrimSpace(string(out))
	if i := strings.LastIndex(v, "\n"); i >= 0 {
		v = strings.TrimSpace(v[i+1:])
	}
	return strings.TrimPrefix(v, "OpenSCAD version "), nil
}

// RenderSTL exports scadPath to stlPath, creating stlPath's directory. An
// empty stlPath means scadPath with a .stl extension.
//
// Returns the STL path written.
func (r *Renderer) RenderSTL(ctx context.Context, scadPath, stlPath string) (string, error) {
	if _, err := os.Stat(scadPath); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	if stlPath == "" {
		stlPath = strings.TrimSuffix(scadPath, filepath.Ext(scadPath)) + ".stl"
	}
	if err := os.MkdirAll(filepath.Dir(stlPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	exe, err := r.Executable()
	if err != nil {
		return "", err
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r.logger().Printf("render: %s -o %s %s", exe, stlPath, scadPath)
	start := time.Now()

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, exe, "-o", stlPath, scadPath)
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: openscad timed out after %v", ErrRender, timeout)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: openscad: %v: %s", ErrRender, err, strings.TrimSpace(output.String()))
	}

	if info, err := os.Stat(stlPath); err != nil || info.Size() == 0 {
		return "", fmt.Errorf("%w: openscad produced no output at %s", ErrRender, stlPath)
	}

	r.logger().Printf("render: finished in %v", time.Since(start).Round(time.Millisecond))
	return stlPath, nil
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if filepath.Ext(path) == ".exe" {
		return true
	}
	return info.Mode()&0o111 != 0
}
