package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	ferrors "github.com/conduit-lang/foundry/pkg/errors"
)

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config to be non-nil")
	}

	if cfg.BuildDir != "_build" {
		t.Errorf("expected default build dir '_build', got %s", cfg.BuildDir)
	}

	if cfg.GoBinary != "go" {
		t.Errorf("expected default go binary 'go', got %s", cfg.GoBinary)
	}

	if cfg.GoVersion != "1.24" {
		t.Errorf("expected default go version '1.24', got %s", cfg.GoVersion)
	}

	if cfg.CleanPolicy != "collect" {
		t.Errorf("expected default clean policy 'collect', got %s", cfg.CleanPolicy)
	}

	if cfg.MetricsFile != "" {
		t.Errorf("expected metrics disabled by default, got %s", cfg.MetricsFile)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
build_dir: out
go_binary: /usr/local/go/bin/go
log_level: debug
log_format: json
clean_policy: stop-on-first
metrics_file: out/metrics.prom
`
	if err := os.WriteFile(filepath.Join(tmpDir, "foundry.yml"), []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.BuildDir != "out" {
		t.Errorf("expected build dir 'out', got %s", cfg.BuildDir)
	}

	if cfg.GoBinary != "/usr/local/go/bin/go" {
		t.Errorf("expected go binary from file, got %s", cfg.GoBinary)
	}

	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("expected debug/json logging, got %s/%s", cfg.LogLevel, cfg.LogFormat)
	}

	if cfg.CleanPolicy != "stop-on-first" {
		t.Errorf("expected clean policy 'stop-on-first', got %s", cfg.CleanPolicy)
	}

	if cfg.MetricsFile != "out/metrics.prom" {
		t.Errorf("expected metrics file from config, got %s", cfg.MetricsFile)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "foundry.yaml"), []byte("build_dir: out\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FOUNDRY_BUILD_DIR", "env-out")

	cfg, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.BuildDir != "env-out" {
		t.Errorf("expected FOUNDRY_BUILD_DIR to win, got %s", cfg.BuildDir)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"clean policy", "clean_policy: sometimes\n"},
		{"log level", "log_level: loud\n"},
		{"log format", "log_format: xml\n"},
		{"go version", "go_version: latest\n"},
		{"build dir", "build_dir: \"\"\n"},
		{"yaml", "build_dir: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			if err := os.WriteFile(filepath.Join(tmpDir, "foundry.yml"), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFrom(tmpDir)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ferrors.ErrConfig) {
				t.Errorf("expected a configuration error, got %v", err)
			}
		})
	}
}

func TestProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, ConfigSource), []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}

	subDir := filepath.Join(tmpDir, "src", "deep", "nested")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	root, err := ProjectRoot(subDir)
	if err != nil {
		t.Fatalf("expected to find project root, got error: %v", err)
	}

	// On macOS, /tmp is symlinked to /private/tmp, so resolve both paths
	resolvedRoot, _ := filepath.EvalSymlinks(root)
	resolvedTmpDir, _ := filepath.EvalSymlinks(tmpDir)

	if resolvedRoot != resolvedTmpDir {
		t.Errorf("expected project root to be %s, got %s", resolvedTmpDir, resolvedRoot)
	}
}

func TestProjectRootNotInProject(t *testing.T) {
	_, err := ProjectRoot(t.TempDir())
	if err == nil {
		t.Error("expected error when not in a project, got nil")
	}
}
