package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/image-to-scad/internal/relief"
	"github.com/ironsheep/image-to-scad/internal/render"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_PartialOverrides(t *testing.T) {
	path := writeConfig(t, "relief.json", `{
		"max_height": 20,
		"smoothing": false,
		"invert_depth": true,
		"render_timeout": "90s"
	}`)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := relief.DefaultConfig()
	f.Apply(&cfg)

	want := relief.DefaultConfig()
	want.MaxHeight = 20
	want.SmoothingEnabled = false
	want.InvertDepth = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("applied config mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("applied config should be valid: %v", err)
	}

	if got := f.GetRenderTimeout(); got != 90*time.Second {
		t.Errorf("render timeout: got %v, want 90s", got)
	}
	if got := f.GetEstimator(); got != "luminance" {
		t.Errorf("estimator: got %q, want luminance", got)
	}
}

func TestLoad_EmptyObjectKeepsDefaults(t *testing.T) {
	f, err := Load(writeConfig(t, "empty.json", `{}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := relief.DefaultConfig()
	f.Apply(&cfg)
	if diff := cmp.Diff(relief.DefaultConfig(), cfg); diff != "" {
		t.Errorf("empty file changed the config (-want +got):\n%s", diff)
	}
	if f.GetRenderTimeout() != render.DefaultTimeout {
		t.Errorf("render timeout: got %v, want default", f.GetRenderTimeout())
	}
	if f.GetOpenSCADPath() != "" || f.GetDenoiseRadius() != 0 {
		t.Error("unset fields should report their defaults")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errText string
	}{
		{"wrong extension", "relief.yaml", `{}`, ".json extension"},
		{"malformed JSON", "bad.json", `{"max_height": }`, "parse"},
		{"unknown key", "typo.json", `{"max_hieght": 5}`, "parse"},
		{"unknown estimator", "est.json", `{"estimator": "midas"}`, "unknown depth estimator"},
		{"negative denoise", "blur.json", `{"denoise_radius": -1}`, "non-negative"},
		{"bad timeout", "timeout.json", `{"render_timeout": "soon"}`, "render_timeout"},
		{"zero timeout", "zero.json", `{"render_timeout": "0s"}`, "positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("error %q should mention %q", err.Error(), tt.errText)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestLoad_TooLarge(t *testing.T) {
	big := `{"output_style": "` + strings.Repeat("x", maxFileSize) + `"}`
	_, err := Load(writeConfig(t, "big.json", big))
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("got %v, want a size error", err)
	}
}

func TestApply_InvalidValuesSurfaceInValidate(t *testing.T) {
	f, err := Load(writeConfig(t, "bad.json", `{"detail_level": 5}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := relief.DefaultConfig()
	f.Apply(&cfg)
	if err := cfg.Validate(); err == nil {
		t.Error("detail level 5 should fail relief validation")
	}
}
