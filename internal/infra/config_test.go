package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("STUDIO_TUNING_FILE", "")
	t.Setenv("VISION_TIMEOUT_SECONDS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("VISION_PROVIDER", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.VisionProvider != VisionProviderGemini {
		t.Fatalf("VisionProvider = %q, want gemini", cfg.VisionProvider)
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("GeminiAPIKey = %q, want empty", cfg.GeminiAPIKey)
	}
	if cfg.VisionTimeout != 60*time.Second {
		t.Fatalf("VisionTimeout = %v, want 60s", cfg.VisionTimeout)
	}
	if cfg.Tuning != DefaultTuning() {
		t.Fatalf("Tuning = %+v, want defaults", cfg.Tuning)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("CORSAllowedOrigins = %v, want [*]", cfg.CORSAllowedOrigins)
	}
	if err := cfg.RequireDatabase(); err == nil {
		t.Fatal("RequireDatabase succeeded without DATABASE_URL")
	}
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("VISION_TIMEOUT_SECONDS", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("STUDIO_TUNING_FILE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		t.Fatalf("RequireDatabase: %v", err)
	}
	if cfg.VisionTimeout != 5*time.Second {
		t.Fatalf("VisionTimeout = %v, want 5s", cfg.VisionTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigRejectsZeroVisionTimeout(t *testing.T) {
	chdirTemp(t)
	t.Setenv("VISION_TIMEOUT_SECONDS", "0")
	t.Setenv("STUDIO_TUNING_FILE", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for zero vision timeout")
	}
}

func TestLoadTuningOverridesDefaults(t *testing.T) {
	dir := chdirTemp(t)
	body := `
[palette]
clusters = 6
seed = 7

[compositor]
max_canvas = 4096
background = "#000000"
`
	if err := os.WriteFile(filepath.Join(dir, DefaultTuningFile), []byte(body), 0o644); err != nil {
		t.Fatalf("write tuning: %v", err)
	}
	tuning, err := LoadTuning("")
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	if tuning.Palette.Clusters != 6 || tuning.Palette.Seed != 7 {
		t.Fatalf("palette = %+v", tuning.Palette)
	}
	if tuning.Palette.WorkingWidth != 256 || tuning.Palette.MaxIterations != 20 {
		t.Fatalf("untouched palette keys lost defaults: %+v", tuning.Palette)
	}
	if tuning.Compositor.MaxCanvas != 4096 || tuning.Compositor.Background != "#000000" {
		t.Fatalf("compositor = %+v", tuning.Compositor)
	}
	if tuning.Extraction.Workers != 4 {
		t.Fatalf("workers = %d, want 4", tuning.Extraction.Workers)
	}
}

func TestLoadTuningKeepsExplicitZeroSeed(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(dir, DefaultTuningFile), []byte("[palette]\nseed = 0\n"), 0o644); err != nil {
		t.Fatalf("write tuning: %v", err)
	}
	tuning, err := LoadTuning("")
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	if tuning.Palette.Seed != 0 {
		t.Fatalf("seed = %d, want 0", tuning.Palette.Seed)
	}
}

func TestLoadTuningErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadTuning(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("expected error for missing explicit file")
	}
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[palette\nclusters = "), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTuning(bad); err == nil {
		t.Fatal("expected parse error")
	}
	invalid := filepath.Join(dir, "invalid.toml")
	if err := os.WriteFile(invalid, []byte("[palette]\nclusters = 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTuning(invalid); err == nil {
		t.Fatal("expected validation error for zero clusters")
	}
}

func TestLoadConfigVisionProvider(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STUDIO_TUNING_FILE", "")
	t.Setenv("VISION_TIMEOUT_SECONDS", "")

	t.Setenv("VISION_PROVIDER", "Qwen")
	t.Setenv("DASHSCOPE_API_KEY", " dash ")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.VisionProvider != VisionProviderQwen || cfg.QwenAPIKey != "dash" {
		t.Fatalf("provider = %q key = %q", cfg.VisionProvider, cfg.QwenAPIKey)
	}

	t.Setenv("VISION_PROVIDER", "openai")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unknown vision provider")
	}
}
